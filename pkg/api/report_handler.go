// Copyright 2026 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/anomalab/ids-server/pkg/ids"
)

// ReportRun generates a CSV report of a run: one row per day with the
// value of each event, the anomaly score and the verdict.
func (a *APICtrl) ReportRun(w http.ResponseWriter, r *http.Request) {
	log.Debug("Report Run, daily values and scores")

	runID := chi.URLParam(r, "runID")
	if runID == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required run identifier")))
		return
	}
	if _, err := a.Store.Run().Get(runID); err != nil {
		render.Render(w, r, ErrNotFound)
		return
	}

	observations, err := a.Store.Observation().List(runID)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	alerts, err := a.Store.Alert().List(runID)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}

	// pivot the observations: one column per event, in first-seen order
	var events []string
	seen := make(map[string]bool)
	values := make(map[int]map[string]float64)
	for _, o := range *observations {
		if !seen[o.Event] {
			seen[o.Event] = true
			events = append(events, o.Event)
		}
		if values[o.Day] == nil {
			values[o.Day] = make(map[string]float64)
		}
		values[o.Day][o.Event] = o.Value
	}

	// Set CSV headers
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"run-report-%s.csv\"", url.QueryEscape(runID)))

	// Create CSV writer
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	// Write CSV header, with title-cased event names
	titler := cases.Title(language.English)
	header := []string{"Day"}
	for _, event := range events {
		header = append(header, titler.String(event))
	}
	header = append(header, "Score", "Status")
	if err := csvWriter.Write(header); err != nil {
		log.Errorf("Error writing CSV header: %v", err)
		render.Render(w, r, ErrServer(err))
		return
	}

	// Write daily records
	for _, alertRow := range *alerts {
		record := []string{fmt.Sprintf("%d", alertRow.Day)}
		for _, event := range events {
			record = append(record, ids.FormatValue(values[alertRow.Day][event]))
		}
		record = append(record, ids.FormatValue(alertRow.Score), verdict(alertRow.Flagged))
		if err := csvWriter.Write(record); err != nil {
			log.Errorf("Error writing CSV record: %v", err)
			render.Render(w, r, ErrServer(err))
			return
		}
	}
}

func verdict(flagged bool) string {
	if flagged {
		return "ALERT"
	}
	return "OK"
}
