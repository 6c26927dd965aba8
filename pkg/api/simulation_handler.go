// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	jsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/anomalab/ids-server/pkg/alert"
	"github.com/anomalab/ids-server/pkg/analysis"
	"github.com/anomalab/ids-server/pkg/ids"
	"github.com/anomalab/ids-server/pkg/sim"
	"github.com/anomalab/ids-server/pkg/stor"
)

//go:embed data/simulation.schema.json
var jsfs embed.FS

// SimulationRequest is the request simulation payload.
type SimulationRequest struct {
	Days     int          `json:"days"`
	Events   ids.EventSet `json:"events"`
	Baseline ids.StatSet  `json:"baseline"`
	Live     ids.StatSet  `json:"live"`
}

// SimulationResponse is the response simulation payload.
type SimulationResponse struct {
	Run     *stor.Run         `json:"run"`
	Reports []alert.DayReport `json:"reports"`
}

// Render processes responses before marshalling.
func (s *SimulationResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// RunSimulation generates live data for the requested event set, scores each
// day against the baseline statistics and persists the resulting run.
func (a *APICtrl) RunSimulation(w http.ResponseWriter, r *http.Request) {
	log.Debug("Run Simulation")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	// check the validity of the payload using the json schema
	if err = validateSimulation(body); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	// parse json data -> simulation request
	data := new(SimulationRequest)
	if err = json.Unmarshal(body, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	for i := range data.Events {
		if err = data.Events[i].Validate(); err != nil {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
	}
	if err = data.Baseline.Covers(data.Events); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err = data.Live.Covers(data.Events); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	// generate and accumulate live data
	gen := sim.NewGenerator(time.Now().UnixNano())
	logs, err := gen.Run(data.Events, data.Live, data.Days)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	acc := analysis.Accumulate(data.Events, logs)

	// score each day against the baseline
	threshold := alert.Threshold(a.Config.Detection.ThresholdFactor, data.Events.TotalWeight())
	links, err := alert.NewLinkBuilder(a.Config.Detection.AlertLink)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	runID := uuid.New().String()
	reports, err := alert.Evaluate(acc, data.Baseline, data.Events.Weights(), threshold, links, runID)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	// persist the run
	run, err := a.persistRun(runID, stor.SOURCE_API, data.Events, logs, reports, threshold)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}

	render.Status(r, http.StatusCreated)
	if err := render.Render(w, r, &SimulationResponse{Run: run, Reports: reports}); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// persistRun stores a scored run with its observations and alerts
func (a *APICtrl) persistRun(runID, source string, events ids.EventSet, logs []sim.DayLog, reports []alert.DayReport, threshold float64) (*stor.Run, error) {

	run := &stor.Run{
		UUID:      runID,
		Source:    source,
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
	if err := run.Validate(); err != nil {
		return nil, err
	}
	if err := a.Store.Run().Create(run); err != nil {
		return nil, fmt.Errorf("storing run: %w", err)
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
	if err := a.Store.Observation().CreateAll(&observations); err != nil {
		return nil, fmt.Errorf("storing observations: %w", err)
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
	if err := a.Store.Alert().CreateAll(&alerts); err != nil {
		return nil, fmt.Errorf("storing alerts: %w", err)
	}

	return run, nil
}

// Check the validity of the simulation payload using the JSON schema
func validateSimulation(bytes []byte) error {

	simulationSchema, err := jsfs.ReadFile("data/simulation.schema.json")
	if err != nil {
		return err
	}

	schemaLoader := jsonschema.NewStringLoader(string(simulationSchema))
	schema, err := jsonschema.NewSchema(schemaLoader)
	if err != nil {
		return err
	}

	documentLoader := jsonschema.NewStringLoader(string(bytes[:]))

	result, err := schema.Validate(documentLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var msg string
		for _, desc := range result.Errors() {
			msg += fmt.Sprintf("%s; ", desc)
		}
		return errors.New("invalid simulation payload: " + msg)
	}
	return nil
}
