// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// idsingest watches a drop directory for live statistics files and scores
// each of them against the configured baseline, storing runs and alerts in
// the database.

package main

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"github.com/anomalab/ids-server/pkg/alert"
	"github.com/anomalab/ids-server/pkg/ids"
	"github.com/anomalab/ids-server/pkg/stor"
)

// Config of the ingest daemon, from environment variables prefixed by "IDSINGEST_"
type Config struct {
	Dsn             string  `required:"true"`
	EventsFile      string  `split_words:"true" required:"true"`
	BaselineStats   string  `split_words:"true" envconfig:"baseline_stats" required:"true"`
	InputPath       string  `split_words:"true" required:"true"`
	Days            int     `default:"10"`
	ThresholdFactor float64 `split_words:"true" default:"2"`
	AlertLink       string  `split_words:"true" envconfig:"alert_link"`
	Verbose         bool
}

func main() {

	var c Config
	err := envconfig.Process("idsingest", &c)
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	if !c.Verbose {
		log.SetLevel(log.WarnLevel)
	}

	// load the event set and the baseline statistics
	events, err := ids.ParseEvents(c.EventsFile)
	if err != nil {
		log.Fatalf("Failed to parse the events file: %v", err)
	}
	baseline, err := ids.ParseStats(c.BaselineStats)
	if err != nil {
		log.Fatalf("Failed to parse the baseline statistics file: %v", err)
	}
	if err = baseline.Covers(events); err != nil {
		log.Fatalf("Incomplete baseline statistics: %v", err)
	}

	// setup the database
	store, err := stor.Init(c.Dsn)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}

	links, err := alert.NewLinkBuilder(c.AlertLink)
	if err != nil {
		log.Fatalf("Invalid alert link: %v", err)
	}

	if _, err := os.Stat(c.InputPath); err != nil {
		log.Fatalf("Input directory unavailable: %v", err)
	}

	activateServer(c, events, baseline, store, links)
}
