// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package analysis implements the analysis engine: it accumulates day
// journals into per-event series and derives baseline statistics from them.
package analysis

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/anomalab/ids-server/pkg/ids"
	"github.com/anomalab/ids-server/pkg/sim"
)

// Accumulated holds per-event value series collected over a number of days.
// Order preserves the sequence in which events were first seen.
type Accumulated struct {
	Days   int
	Order  []string
	Series map[string][]float64
}

// Value returns the value of an event on a given day (1-based)
func (a *Accumulated) Value(event string, day int) (float64, error) {
	series, ok := a.Series[event]
	if !ok {
		return 0, fmt.Errorf("unknown event %s", event)
	}
	if day < 1 || day > len(series) {
		return 0, fmt.Errorf("event %s has no value for day %d", event, day)
	}
	return series[day-1], nil
}

// Accumulate collects generated daily logs into per-event series
func Accumulate(events ids.EventSet, logs []sim.DayLog) *Accumulated {

	acc := &Accumulated{
		Days:   len(logs),
		Series: make(map[string][]float64, len(events)),
	}
	for _, def := range events {
		acc.Order = append(acc.Order, def.Name)
		series := make([]float64, 0, len(logs))
		for _, daily := range logs {
			series = append(series, daily[def.Name])
		}
		acc.Series[def.Name] = series
	}
	return acc
}

// ReadJournal accumulates the content of a journal file.
// Day:<n> headers increment the day counter, event:value lines
// append to the event series.
func ReadJournal(fileName string) (*Accumulated, error) {

	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	acc := &Accumulated{Series: make(map[string][]float64)}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Day") {
			acc.Days++
			continue
		}
		key, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return nil, fmt.Errorf("journal %s: invalid value for %s: %w", fileName, key, err)
		}
		if _, seen := acc.Series[key]; !seen {
			acc.Order = append(acc.Order, key)
		}
		acc.Series[key] = append(acc.Series[key], value)
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	return acc, nil
}
