// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package alert

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/anomalab/ids-server/pkg/analysis"
	"github.com/anomalab/ids-server/pkg/ids"
	"github.com/anomalab/ids-server/pkg/sim"
)

const reportRule = "=========================================================================="

// Engine drives the interactive live-analysis loop: it repeatedly loads a
// new statistics file, generates live data and reports daily anomaly scores
// against the baseline statistics. Input and output are injected so the
// loop can be tested.
type Engine struct {
	Events          ids.EventSet
	Baseline        ids.StatSet
	ThresholdFactor float64
	LiveLogsPath    string
	Gen             *sim.Generator
	In              io.Reader
	Out             io.Writer
}

// Run executes the loop until the operator enters 'q' or input ends
func (e *Engine) Run() error {

	scanner := bufio.NewScanner(e.In)
	weights := e.Events.Weights()
	threshold := Threshold(e.ThresholdFactor, e.Events.TotalWeight())

	for {
		// load a new statistics file
		var liveStats ids.StatSet
		for liveStats == nil {
			fmt.Fprint(e.Out, "Enter the new stats file for live data analysis (or 'q' to quit): ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			answer := strings.TrimSpace(scanner.Text())
			if strings.EqualFold(answer, "q") {
				return nil
			}
			fmt.Fprintln(e.Out, "Loading new statistics...")
			stats, err := ids.ParseStats(answer)
			if err != nil {
				fmt.Fprintf(e.Out, "Error: %v\n", err)
				continue
			}
			if err = stats.Covers(e.Events); err != nil {
				fmt.Fprintf(e.Out, "Error: %v\n", err)
				continue
			}
			liveStats = stats
		}

		// get the number of days
		days := 0
		for days == 0 {
			fmt.Fprint(e.Out, "Enter the number of days for live data generation: ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			d, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil || d < 1 {
				fmt.Fprintln(e.Out, "Error: expected a positive integer for the number of days")
				continue
			}
			days = d
		}

		// generate live data
		fmt.Fprintf(e.Out, "Generating live data for %d days...\n", days)
		logs, err := e.Gen.Run(e.Events, liveStats, days)
		if err != nil {
			return err
		}
		if err = sim.WriteJournal(e.LiveLogsPath, e.Events, logs); err != nil {
			return err
		}
		fmt.Fprintln(e.Out, "Accumulating live events...")
		acc, err := analysis.ReadJournal(e.LiveLogsPath)
		if err != nil {
			return err
		}

		// score each day
		fmt.Fprintln(e.Out)
		fmt.Fprintln(e.Out, "Calculating anomaly scores for live data...")
		scores, err := Scores(acc, e.Baseline, weights)
		if err != nil {
			log.Errorf("Failed to calculate anomaly scores: %v", err)
			return err
		}

		fmt.Fprintln(e.Out)
		fmt.Fprintln(e.Out, reportRule)
		fmt.Fprintln(e.Out, "Daily Reports")
		fmt.Fprintf(e.Out, "Anomaly Detection Threshold: %s\n", ids.FormatValue(threshold))
		fmt.Fprintln(e.Out, reportRule)
		for i, score := range scores {
			if score >= threshold {
				fmt.Fprintf(e.Out, "Day %d: ALERT - Anomaly Score = %s\n", i+1, ids.FormatValue(score))
			} else {
				fmt.Fprintf(e.Out, "Day %d: OK - Anomaly Score = %s\n", i+1, ids.FormatValue(score))
			}
		}
		fmt.Fprintln(e.Out, reportRule)
	}
}
