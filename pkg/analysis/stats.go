// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package analysis

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/anomalab/ids-server/pkg/ids"
)

// ComputeStats derives the mean and sample standard deviation of each
// accumulated event series, rounded to 2 decimals. A series with a single
// value gets a standard deviation of 0.
func ComputeStats(acc *Accumulated) ids.StatSet {

	stats := make(ids.StatSet, len(acc.Order))
	for _, name := range acc.Order {
		series := acc.Series[name]
		if len(series) == 0 {
			continue
		}
		var p ids.StatProfile
		p.Mean = ids.Round2(stat.Mean(series, nil))
		if len(series) > 1 {
			sd := stat.StdDev(series, nil)
			if !math.IsNaN(sd) {
				p.StdDev = ids.Round2(sd)
			}
		}
		stats[name] = p
	}
	return stats
}

// WriteStats writes a statistics file readable by ids.ParseStats:
// the event count on the first line, then name:mean:stddev: lines
// in accumulation order.
func WriteStats(fileName string, acc *Accumulated, stats ids.StatSet) error {

	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("creating statistics %s: %w", fileName, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d\n", len(stats))
	for _, name := range acc.Order {
		p, ok := stats[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s:%s:%s:\n", name, ids.FormatValue(p.Mean), ids.FormatValue(p.StdDev))
	}
	return w.Flush()
}
