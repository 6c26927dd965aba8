// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// ids simulates daily event activity, derives baseline statistics from it
// and interactively scores live data for anomalies.

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/anomalab/ids-server/pkg/alert"
	"github.com/anomalab/ids-server/pkg/analysis"
	"github.com/anomalab/ids-server/pkg/ids"
	"github.com/anomalab/ids-server/pkg/sim"
)

const rule = "=========================================================================="

func init() {
	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
}

func usage() {
	fmt.Println("Usage: ids [-seed] [-threshold-factor] [-verbose] eventsFile statsFile days")
	flag.PrintDefaults()
}

// parseDays rejects anything but a positive integer, trailing characters included
func parseDays(arg string) (int, error) {
	days, err := strconv.Atoi(arg)
	if err != nil || days < 1 {
		return 0, errors.New("expected a positive integer for the number of days")
	}
	return days, nil
}

func main() {

	// parse the command line
	seed := flag.Int64("seed", 0, "random seed for event generation. If 0, the seed is drawn from the clock.")
	factor := flag.Float64("threshold-factor", 2, "the alert threshold is this factor times the sum of event weights.")
	verbose := flag.Bool("verbose", false, "if set, display info messages; if not set, display only warnings and errors.")
	flag.Parse()

	// the verbose flag acts on the info level
	if !*verbose {
		log.SetLevel(log.WarnLevel)
	}

	if flag.NArg() != 3 {
		usage()
		os.Exit(1)
	}
	eventsFile := flag.Arg(0)
	statsFile := flag.Arg(1)
	days, err := parseDays(flag.Arg(2))
	if err != nil {
		log.Fatal("Error: ", err)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	fmt.Println(rule)
	fmt.Println("Initializing Events and Statistics...")
	events, err := ids.ParseEvents(eventsFile)
	if err != nil {
		log.Fatal("Error: ", err)
	}
	stats, err := ids.ParseStats(statsFile)
	if err != nil {
		log.Fatal("Error: ", err)
	}
	if len(events) != len(stats) {
		log.Fatal("Error: inconsistent number between events and statistics")
	}
	fmt.Println("Initialization success!")

	fmt.Println(rule)
	fmt.Println("EVENTS DATA")
	fmt.Println(rule)
	for _, e := range events {
		fmt.Printf("%-15s: type=%s min=%s max=%s weight=%d\n",
			e.Name, e.Type, ids.FormatValue(e.Min), ids.FormatValue(e.Max), e.Weight)
	}

	fmt.Println(rule)
	fmt.Println("STATISTICS DATA")
	fmt.Println(rule)
	for _, e := range events {
		p := stats[e.Name]
		fmt.Printf("%-15s: mean=%s stddev=%s\n", e.Name, ids.FormatValue(p.Mean), ids.FormatValue(p.StdDev))
	}

	fmt.Println(rule)
	fmt.Println("Activity Engine and the Logs")
	fmt.Println(rule)

	gen := sim.NewGenerator(*seed)

	fmt.Println("Generating events...")
	logs, err := gen.Run(events, stats, days)
	if err != nil {
		log.Fatal("Error: ", err)
	}
	fmt.Printf("Generated %d days of events!\n\n", days)

	fmt.Println("Generating Logs File...")
	if err = sim.WriteJournal("logs.txt", events, logs); err != nil {
		log.Fatal("Error: ", err)
	}
	fmt.Print("Event logs written successfully to logs.txt!\n\n")

	fmt.Println("Accumulating daily totals...")
	acc, err := analysis.ReadJournal("logs.txt")
	if err != nil {
		log.Fatal("Error: ", err)
	}
	fmt.Println("Calculations Complete!")

	fmt.Println(rule)
	fmt.Println("Analysis Engine")
	fmt.Println(rule)

	fmt.Println("Generating Data File...")
	if err = analysis.WriteBaseline("baseline.txt", acc); err != nil {
		log.Fatal("Error: ", err)
	}
	fmt.Print("Data successfully written to baseline.txt!\n\n")

	fmt.Println("Calculating statistics...")
	baseline, err := analysis.ReadBaseline("baseline.txt")
	if err != nil {
		log.Fatal("Error: ", err)
	}
	baselineStats := analysis.ComputeStats(baseline)
	if err = analysis.WriteStats("baseline_statistics.txt", baseline, baselineStats); err != nil {
		log.Fatal("Error: ", err)
	}
	fmt.Println("Statistics successfully written to baseline_statistics.txt...")

	fmt.Println(rule)
	fmt.Println("Alert Engine")
	fmt.Println(rule)

	engine := alert.Engine{
		Events:          events,
		Baseline:        baselineStats,
		ThresholdFactor: *factor,
		LiveLogsPath:    "live_logs.txt",
		Gen:             gen,
		In:              os.Stdin,
		Out:             os.Stdout,
	}
	if err = engine.Run(); err != nil {
		log.Fatal("Error: ", err)
	}
}
