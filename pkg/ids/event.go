// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package ids holds the domain model of the intrusion detection simulator:
// monitored event definitions and per-event statistical profiles, plus the
// parsers for their colon-delimited file formats.
package ids

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Event types: continuous values are rounded to 2 decimals,
// discrete values are truncated to integers.
const (
	EventContinuous = "C"
	EventDiscrete   = "D"
)

// EventDef describes a monitored event
type EventDef struct {
	Name   string  `json:"name" validate:"required"`
	Type   string  `json:"type" validate:"required,oneof=C D"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max" validate:"gtfield=Min"`
	Weight int     `json:"weight" validate:"required,gt=0"`
}

// Validate checks required fields and values
func (e *EventDef) Validate() error {

	validate := validator.New()
	return validate.Struct(e)
}

// EventSet is an ordered collection of event definitions.
// The order of the source file is preserved, as the journal
// writes event values in definition order.
type EventSet []EventDef

// Find returns the definition of a named event
func (s EventSet) Find(name string) (*EventDef, bool) {
	for i := range s {
		if s[i].Name == name {
			return &s[i], true
		}
	}
	return nil, false
}

// Weights returns the weight of each event, keyed by event name
func (s EventSet) Weights() map[string]int {
	weights := make(map[string]int, len(s))
	for _, e := range s {
		weights[e.Name] = e.Weight
	}
	return weights
}

// TotalWeight returns the sum of all event weights
func (s EventSet) TotalWeight() int {
	var total int
	for _, e := range s {
		total += e.Weight
	}
	return total
}

// ParseEvents reads an events file.
// The first line declares the number of events; each following line is
// name:type:min:max:weight: with empty min/max defaulting to 0 and an
// empty weight defaulting to 1.
func ParseEvents(fileName string) (EventSet, error) {

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

	events := make(EventSet, 0, numEvents)
	linesRead := 0
	for linesRead < numEvents && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		attributes := strings.Split(line, ":")
		if len(attributes) < 5 {
			return nil, fmt.Errorf("malformed event line %q: expected name:type:min:max:weight", line)
		}
		var e EventDef
		e.Name = attributes[0]
		e.Type = attributes[1]
		e.Min, err = parseFloatField(attributes[2])
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.Name, err)
		}
		e.Max, err = parseFloatField(attributes[3])
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.Name, err)
		}
		if e.Min >= e.Max {
			return nil, fmt.Errorf("event %s: min value expected to be lower than max value", e.Name)
		}
		e.Weight = 1
		if attributes[4] != "" {
			e.Weight, err = strconv.Atoi(attributes[4])
			if err != nil {
				return nil, fmt.Errorf("event %s: non-zero positive integer expected for weight", e.Name)
			}
		}
		if e.Weight <= 0 {
			return nil, fmt.Errorf("event %s: non-zero positive integer expected for weight", e.Name)
		}
		if err = e.Validate(); err != nil {
			return nil, fmt.Errorf("event %s: %w", e.Name, err)
		}
		events = append(events, e)
		linesRead++
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	if linesRead != numEvents {
		return nil, fmt.Errorf("expected %d events, but found %d in the file", numEvents, linesRead)
	}

	return events, nil
}

// readDeclaredCount reads the integer count on the first line of a data file
func readDeclaredCount(scanner *bufio.Scanner) (int, error) {
	if !scanner.Scan() {
		return 0, fmt.Errorf("the first line should specify an integer number of events")
	}
	count, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return 0, fmt.Errorf("the first line should specify an integer number of events")
	}
	return count, nil
}

// parseFloatField parses a numeric field, an empty field defaults to 0
func parseFloatField(field string) (float64, error) {
	if field == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric field %q", field)
	}
	return v, nil
}
