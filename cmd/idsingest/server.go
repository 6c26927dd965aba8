// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// idsingest server mode

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/anomalab/ids-server/pkg/alert"
	"github.com/anomalab/ids-server/pkg/analysis"
	"github.com/anomalab/ids-server/pkg/ids"
	"github.com/anomalab/ids-server/pkg/sim"
	"github.com/anomalab/ids-server/pkg/stor"
)

func activateServer(c Config, events ids.EventSet, baseline ids.StatSet, store stor.Store, links *alert.LinkBuilder) {
	// system signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// process files already present in the input directory
	processExistingFiles(c, events, baseline, store, links)

	go func() {
		// semaphore, limits processing to 4 concurrent files
		sem := make(chan struct{}, 4)
		watchFileChanges(ctx, c, events, baseline, store, links, &wg, sem)
	}()

	<-stop
	log.Println("Shutdown requested, initiating graceful shutdown...")
	cancel()  // signal the watcher to stop
	wg.Wait() // wait for ongoing processing to finish
	log.Println("Server halted.")
}

// processExistingFiles processes files already present in the input directory
func processExistingFiles(c Config, events ids.EventSet, baseline ids.StatSet, store stor.Store, links *alert.LinkBuilder) {
	files, err := os.ReadDir(c.InputPath)
	if err != nil {
		log.Printf("Error reading directory: %v", err)
		return
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if file.Name() == ".DS_Store" {
			log.Printf("Ignoring .DS_Store file")
			continue
		}
		log.Printf("File found: %s", file.Name())
		err = processFile(c, events, baseline, store, links, file.Name())
		if err != nil {
			log.Errorf("Error processing file %s: %v", file.Name(), err)
		}
	}
}

// watchFileChanges monitors changes in the input directory
func watchFileChanges(ctx context.Context, c Config, events ids.EventSet, baseline ids.StatSet, store stor.Store, links *alert.LinkBuilder, wg *sync.WaitGroup, sem chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("Error creating watcher: %v", err)
	}
	defer watcher.Close()

	err = watcher.Add(c.InputPath)
	if err != nil {
		log.Fatalf("Error adding directory: %v", err)
	}

	log.Printf("Monitoring directory: %s", c.InputPath)
	for {
		select {
		case <-ctx.Done():
			log.Println("Watcher stop requested.")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				log.Printf("File modified or created: %s", event.Name)
				sem <- struct{}{} // block if 4 processes are already running
				wg.Add(1)
				go func(filePath string) {
					defer wg.Done()
					defer func() { <-sem }() // free up a slot in the semaphore
					fileName := filepath.Base(filePath)
					// err must be local: up to 4 of these goroutines run at once
					if err := processFile(c, events, baseline, store, links, fileName); err != nil {
						log.Errorf("Error processing file %s: %v", fileName, err)
					}
				}(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Error watching: %v", err)
		}
	}
}

// processFile scores one live statistics file against the baseline
// and stores the resulting run
func processFile(c Config, events ids.EventSet, baseline ids.StatSet, store stor.Store, links *alert.LinkBuilder, fileName string) error {

	liveStats, err := ids.ParseStats(filepath.Join(c.InputPath, fileName))
	if err != nil {
		return fmt.Errorf("parsing live statistics: %w", err)
	}
	if err = liveStats.Covers(events); err != nil {
		return err
	}

	gen := sim.NewGenerator(time.Now().UnixNano())
	logs, err := gen.Run(events, liveStats, c.Days)
	if err != nil {
		return err
	}
	acc := analysis.Accumulate(events, logs)

	threshold := alert.Threshold(c.ThresholdFactor, events.TotalWeight())
	runID := uuid.New().String()
	reports, err := alert.Evaluate(acc, baseline, events.Weights(), threshold, links, runID)
	if err != nil {
		return err
	}

	if err = storeRun(store, runID, events, logs, reports, threshold); err != nil {
		return err
	}

	for _, report := range reports {
		if report.Alert {
			log.Warnf("Run %s day %d: ALERT - anomaly score %s", runID, report.Day, ids.FormatValue(report.Score))
		}
	}
	log.Printf("Processed %s as run %s", fileName, runID)
	return nil
}

// storeRun persists a scored run with its observations and alerts
func storeRun(store stor.Store, runID string, events ids.EventSet, logs []sim.DayLog, reports []alert.DayReport, threshold float64) error {

	run := &stor.Run{
		UUID:      runID,
		Source:    stor.SOURCE_INGEST,
		Days:      len(logs),
		Threshold: threshold,
	}
	for _, report := range reports {
		if report.Score > run.MaxScore {
			run.MaxScore = report.Score
		}
		if report.Alert {
			run.FlaggedDays++
		}
	}
	if err := store.Run().Create(run); err != nil {
		return fmt.Errorf("storing run: %w", err)
	}

	observations := make([]stor.Observation, 0, len(logs)*len(events))
	for i, daily := range logs {
		for _, def := range events {
			observations = append(observations, stor.Observation{
				RunID: runID,
				Day:   i + 1,
				Event: def.Name,
				Value: daily[def.Name],
			})
		}
	}
	if err := store.Observation().CreateAll(&observations); err != nil {
		return fmt.Errorf("storing observations: %w", err)
	}

	alerts := make([]stor.Alert, 0, len(reports))
	for _, report := range reports {
		alerts = append(alerts, stor.Alert{
			RunID:   runID,
			Day:     report.Day,
			Score:   report.Score,
			Flagged: report.Alert,
		})
	}
	if err := store.Alert().CreateAll(&alerts); err != nil {
		return fmt.Errorf("storing alerts: %w", err)
	}
	return nil
}
