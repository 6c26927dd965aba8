// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package ids

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// StatProfile holds the statistical profile of one event
type StatProfile struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// StatSet maps event names to their statistical profile
type StatSet map[string]StatProfile

// Covers checks that every event of the set has a statistical profile
func (s StatSet) Covers(events EventSet) error {
	for _, e := range events {
		if _, ok := s[e.Name]; !ok {
			return fmt.Errorf("missing statistics for event %s", e.Name)
		}
	}
	return nil
}

// ParseStats reads a statistics file.
// The first line declares the number of events; each following line is
// name:mean:stddev: with empty numeric fields defaulting to 0.
func ParseStats(fileName string) (StatSet, error) {

	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	numEvents, err := readDeclaredCount(scanner)
	if err != nil {
		return nil, err
	}

	stats := make(StatSet, numEvents)
	linesRead := 0
	for linesRead < numEvents && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		attributes := strings.Split(line, ":")
		if len(attributes) < 3 {
			return nil, fmt.Errorf("malformed statistics line %q: expected name:mean:stddev", line)
		}
		var p StatProfile
		name := attributes[0]
		p.Mean, err = parseFloatField(attributes[1])
		if err != nil {
			return nil, fmt.Errorf("statistics for %s: %w", name, err)
		}
		p.StdDev, err = parseFloatField(attributes[2])
		if err != nil {
			return nil, fmt.Errorf("statistics for %s: %w", name, err)
		}
		stats[name] = p
		linesRead++
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	if linesRead != numEvents {
		return nil, fmt.Errorf("expected %d events, but found %d in the file", numEvents, linesRead)
	}

	return stats, nil
}
