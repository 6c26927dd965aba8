// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"errors"
	"net/http"

	"github.com/anomalab/ids-server/pkg/stor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ListRuns lists simulation runs, paginated when the middleware
// put page parameters in the context.
func (a *APICtrl) ListRuns(w http.ResponseWriter, r *http.Request) {
	var runs *[]stor.Run
	var err error

	page, pOk := r.Context().Value(PageKey).(int)
	perPage, ppOk := r.Context().Value(PerPageKey).(int)
	if pOk && ppOk {
		runs, err = a.Store.Run().List(page, perPage)
	} else {
		runs, err = a.Store.Run().ListAll()
	}
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	if err := render.RenderList(w, r, NewRunListResponse(runs)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// SearchRuns searches runs corresponding to a specific criteria.
func (a *APICtrl) SearchRuns(w http.ResponseWriter, r *http.Request) {
	var runs *[]stor.Run
	var err error

	// by source
	if source := r.URL.Query().Get("source"); source != "" {
		switch source {
		case stor.SOURCE_CLI, stor.SOURCE_API, stor.SOURCE_INGEST:
			runs, err = a.Store.Run().FindBySource(source)
		default:
			err = errors.New("invalid source query string parameter")
		}
	} else {
		render.Render(w, r, ErrNotFound)
		return
	}
	if err != nil {
		render.Render(w, r, ErrNotFound)
		return
	}
	if err := render.RenderList(w, r, NewRunListResponse(runs)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// GetRun returns a specific run
func (a *APICtrl) GetRun(w http.ResponseWriter, r *http.Request) {

	var run *stor.Run
	var err error

	if runID := chi.URLParam(r, "runID"); runID != "" {
		run, err = a.Store.Run().Get(runID)
	} else {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required run identifier")))
		return
	}
	if err != nil {
		render.Render(w, r, ErrNotFound)
		return
	}
	if err := render.Render(w, r, NewRunResponse(run)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// DeleteRun removes an existing run from the database.
func (a *APICtrl) DeleteRun(w http.ResponseWriter, r *http.Request) {

	var run *stor.Run
	var err error

	// get the existing run
	if runID := chi.URLParam(r, "runID"); runID != "" {
		run, err = a.Store.Run().Get(runID)
	} else {
		render.Render(w, r, ErrNotFound)
		return
	}
	if err != nil {
		render.Render(w, r, ErrNotFound)
		return
	}

	// db delete
	err = a.Store.Run().Delete(run)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}

	if err := render.Render(w, r, NewRunResponse(run)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// ListRunAlerts lists the daily alerts of a run.
func (a *APICtrl) ListRunAlerts(w http.ResponseWriter, r *http.Request) {

	runID := chi.URLParam(r, "runID")
	if runID == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required run identifier")))
		return
	}
	// only flagged days when the query parameter is set
	var alerts *[]stor.Alert
	var err error
	if r.URL.Query().Get("flagged") != "" {
		alerts, err = a.Store.Alert().FindFlagged(runID)
	} else {
		alerts, err = a.Store.Alert().List(runID)
	}
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	if err := render.RenderList(w, r, NewAlertListResponse(alerts)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// ListRunObservations lists the daily observations of a run.
func (a *APICtrl) ListRunObservations(w http.ResponseWriter, r *http.Request) {

	runID := chi.URLParam(r, "runID")
	if runID == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required run identifier")))
		return
	}
	var observations *[]stor.Observation
	var err error
	if event := r.URL.Query().Get("event"); event != "" {
		observations, err = a.Store.Observation().FindByEvent(runID, event)
	} else {
		observations, err = a.Store.Observation().List(runID)
	}
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	if err := render.RenderList(w, r, NewObservationListResponse(observations)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// --
// Response payloads for the REST api.
// --

// RunResponse is the response run payload.
type RunResponse struct {
	*stor.Run
}

// NewRunListResponse creates a rendered list of runs
func NewRunListResponse(runs *[]stor.Run) []render.Renderer {
	list := []render.Renderer{}
	for i := 0; i < len(*runs); i++ {
		list = append(list, NewRunResponse(&(*runs)[i]))
	}
	return list
}

// NewRunResponse creates a rendered run.
func NewRunResponse(run *stor.Run) *RunResponse {
	return &RunResponse{Run: run}
}

// Render processes responses before marshalling.
func (run *RunResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// AlertResponse is the response alert payload.
type AlertResponse struct {
	*stor.Alert
}

// NewAlertListResponse creates a rendered list of alerts
func NewAlertListResponse(alerts *[]stor.Alert) []render.Renderer {
	list := []render.Renderer{}
	for i := 0; i < len(*alerts); i++ {
		list = append(list, &AlertResponse{Alert: &(*alerts)[i]})
	}
	return list
}

// Render processes responses before marshalling.
func (a *AlertResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// ObservationResponse is the response observation payload.
type ObservationResponse struct {
	*stor.Observation
}

// NewObservationListResponse creates a rendered list of observations
func NewObservationListResponse(observations *[]stor.Observation) []render.Renderer {
	list := []render.Renderer{}
	for i := 0; i < len(*observations); i++ {
		list = append(list, &ObservationResponse{Observation: &(*observations)[i]})
	}
	return list
}

// Render processes responses before marshalling.
func (o *ObservationResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
