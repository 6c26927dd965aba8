// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package analysis

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/anomalab/ids-server/pkg/ids"
)

const (
	baselineHeader = "Total Statistics"
	baselineRule   = "==========="
)

// WriteBaseline writes accumulated series to a baseline data file.
// Each event line holds its comma-separated daily values; the final
// Day line holds the number of accumulated days.
func WriteBaseline(fileName string, acc *Accumulated) error {

	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("creating baseline %s: %w", fileName, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, baselineHeader)
	fmt.Fprintln(w, baselineRule)
	for _, name := range acc.Order {
		values := make([]string, 0, len(acc.Series[name]))
		for _, v := range acc.Series[name] {
			values = append(values, ids.FormatValue(v))
		}
		fmt.Fprintf(w, "%s: %s\n", name, strings.Join(values, ", "))
	}
	fmt.Fprintf(w, "Day:%d\n", acc.Days)
	return w.Flush()
}

// ReadBaseline reads a baseline data file back into accumulated series
func ReadBaseline(fileName string) (*Accumulated, error) {

	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	acc := &Accumulated{Series: make(map[string][]float64)}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == baselineHeader || line == baselineRule {
			continue
		}
		key, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "Day" {
			acc.Days, err = strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return nil, fmt.Errorf("baseline %s: invalid day count: %w", fileName, err)
			}
			continue
		}
		var series []float64
		for _, field := range strings.Split(rest, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("baseline %s: invalid value for %s: %w", fileName, key, err)
			}
			series = append(series, v)
		}
		if len(series) == 0 {
			// keep going, the stats writer flags missing data
			fmt.Fprintf(os.Stderr, "Warning: missing data for event %q in %s\n", key, fileName)
			continue
		}
		acc.Order = append(acc.Order, key)
		acc.Series[key] = series
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	return acc, nil
}
