// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package sim implements the activity engine: it draws daily event values
// from truncated normal distributions and maintains the day journal.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/anomalab/ids-server/pkg/ids"
)

// DayLog holds the generated value of each event for one day
type DayLog map[string]float64

// Generator draws event values from truncated normal distributions.
// The random source is injected, so tests can run with a fixed seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with the given value
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Draw samples one value for an event, from a normal distribution with the
// profile's mean and standard deviation, truncated to [min, max].
// Sampling uses the inverse transform: a uniform draw between CDF(min) and
// CDF(max) is mapped back through the quantile function.
func (g *Generator) Draw(def ids.EventDef, prof ids.StatProfile) (float64, error) {

	if def.Type != ids.EventContinuous && def.Type != ids.EventDiscrete {
		return 0, fmt.Errorf("invalid event type %q, expected 'C' for continuous or 'D' for discrete", def.Type)
	}

	var value float64
	if prof.StdDev <= 0 {
		// degenerate distribution, emit the mean clamped to the bounds
		value = clamp(prof.Mean, def.Min, def.Max)
	} else {
		dist := distuv.Normal{Mu: prof.Mean, Sigma: prof.StdDev}
		lo := dist.CDF(def.Min)
		hi := dist.CDF(def.Max)
		if hi <= lo {
			// the whole probability mass lies outside [min, max]
			if prof.Mean < def.Min {
				value = def.Min
			} else {
				value = def.Max
			}
		} else {
			u := lo + (hi-lo)*g.rng.Float64()
			value = clamp(dist.Quantile(u), def.Min, def.Max)
		}
	}

	switch def.Type {
	case ids.EventDiscrete:
		value = math.Trunc(value)
	case ids.EventContinuous:
		value = ids.Round2(value)
	}
	return value, nil
}

// Run generates the daily logs for a number of days
func (g *Generator) Run(events ids.EventSet, stats ids.StatSet, days int) ([]DayLog, error) {

	if days < 1 {
		return nil, fmt.Errorf("invalid number of days: %d", days)
	}
	if err := stats.Covers(events); err != nil {
		return nil, err
	}

	logs := make([]DayLog, 0, days)
	for day := 1; day <= days; day++ {
		daily := make(DayLog, len(events))
		for _, def := range events {
			value, err := g.Draw(def, stats[def.Name])
			if err != nil {
				return nil, err
			}
			daily[def.Name] = value
		}
		logs = append(logs, daily)
	}
	return logs, nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
