// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package alert implements the alert engine: daily anomaly scoring of
// accumulated live data against baseline statistics, and the interactive
// analysis loop of the ids command.
package alert

import (
	"fmt"

	"github.com/jtacoma/uritemplates"

	"github.com/anomalab/ids-server/pkg/analysis"
	"github.com/anomalab/ids-server/pkg/ids"
)

// DayReport holds the anomaly verdict for one day of live data
type DayReport struct {
	Day   int     `json:"day"`
	Score float64 `json:"score"`
	Alert bool    `json:"alert"`
	Link  string  `json:"link,omitempty"`
}

// Scores computes the anomaly score of each accumulated day.
// A day's score is the sum over events of weight * |value - mean| / stddev;
// an event with a zero baseline deviation contributes nothing.
func Scores(acc *analysis.Accumulated, baseline ids.StatSet, weights map[string]int) ([]float64, error) {

	scores := make([]float64, 0, acc.Days)
	for day := 1; day <= acc.Days; day++ {
		var score float64
		for _, name := range acc.Order {
			value, err := acc.Value(name, day)
			if err != nil {
				return nil, err
			}
			profile, ok := baseline[name]
			if !ok {
				return nil, fmt.Errorf("no baseline statistics for event %s", name)
			}
			weight, ok := weights[name]
			if !ok {
				weight = 1
			}
			var deviation float64
			if profile.StdDev > 0 {
				deviation = abs(value-profile.Mean) / profile.StdDev
			}
			score += deviation * float64(weight)
		}
		scores = append(scores, ids.Round2(score))
	}
	return scores, nil
}

// Threshold returns the alert threshold for a set of event weights
func Threshold(factor float64, totalWeight int) float64 {
	return factor * float64(totalWeight)
}

// Evaluate scores each day and flags those reaching the threshold.
// When a link builder is provided, flagged days carry a report link.
func Evaluate(acc *analysis.Accumulated, baseline ids.StatSet, weights map[string]int, threshold float64, links *LinkBuilder, runID string) ([]DayReport, error) {

	scores, err := Scores(acc, baseline, weights)
	if err != nil {
		return nil, err
	}
	reports := make([]DayReport, 0, len(scores))
	for i, score := range scores {
		r := DayReport{
			Day:   i + 1,
			Score: score,
			Alert: score >= threshold,
		}
		if r.Alert && links != nil {
			r.Link = links.DayLink(runID, r.Day)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// LinkBuilder expands a URI template into per-day report links
type LinkBuilder struct {
	template *uritemplates.UriTemplate
}

// NewLinkBuilder parses a URI template with {run_id} and {day} variables.
// An empty template yields a nil builder.
func NewLinkBuilder(template string) (*LinkBuilder, error) {
	if template == "" {
		return nil, nil
	}
	t, err := uritemplates.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("invalid alert link template: %w", err)
	}
	return &LinkBuilder{template: t}, nil
}

// DayLink expands the template for a run and day
func (b *LinkBuilder) DayLink(runID string, day int) string {
	link, err := b.template.Expand(map[string]interface{}{
		"run_id": runID,
		"day":    fmt.Sprintf("%d", day),
	})
	if err != nil {
		return ""
	}
	return link
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
