// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"

	"github.com/anomalab/ids-server/pkg/stor"
)

// GetDashboardData returns a summary of key metrics about the system
func (a *APICtrl) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	log.Debug("Get Dashboard Data")

	data, err := a.Store.Dashboard().GetDashboard()
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}

	render.JSON(w, r, data)
}

// GetNoisiestEvents returns the events with the most observations across runs
func (a *APICtrl) GetNoisiestEvents(w http.ResponseWriter, r *http.Request) {
	log.Debug("Get Noisiest Events")

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}

	var events []stor.EventActivityData
	events, err := a.Store.Dashboard().GetNoisiestEvents(limit)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}

	render.JSON(w, r, events)
}
