// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/anomalab/ids-server/pkg/api"
)

func (s *Server) setRoutes() *chi.Mux {

	// Set api controller dependencies
	a := api.NewAPICtrl(s.Config, s.Store)

	// Define the router
	r := chi.NewRouter()

	// Recovery middleware
	r.Use(middleware.Recoverer)

	// Heartbeat (excluded from logs)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("The IDS Server is running!"))
	})

	// Group for all other routes
	r.Group(func(r chi.Router) {
		// Logger middleware
		r.Use(middleware.Logger)

		r.NotFound(notFoundProblemDetail)

		// CORS Configuration
		origins := s.Config.Origins
		if len(origins) == 0 {
			origins = []string{"http://localhost:8090"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300, // Maximum value not ignored by any of major browsers
		}))

		// Static resources management (optional)
		if s.Config.Resources != "" {
			r.Group(func(r chi.Router) {
				resourceDir := s.Config.Resources
				path := "/resources/*"

				r.Get(path, func(w http.ResponseWriter, r *http.Request) {
					rctx := chi.RouteContext(r.Context())
					pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
					fs := http.StripPrefix(pathPrefix, http.FileServer(http.Dir(resourceDir)))
					fs.ServeHTTP(w, r)
				})
			})
		}

		// Private Routes
		// Require Authentication
		credentials := make(map[string]string)
		credentials[s.Config.Access.Username] = s.Config.Access.Password

		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth("restricted", credentials))
			r.Use(render.SetContentType(render.ContentTypeJSON))

			// Simulations
			r.Post("/simulations", a.RunSimulation) // POST /simulations

			// Runs
			r.Route("/runs", func(r chi.Router) {
				r.With(paginate).Get("/", a.ListRuns)         // GET /runs/
				r.With(paginate).Get("/search", a.SearchRuns) // GET /runs/search{?source}

				r.Route("/{runID}", func(r chi.Router) {
					r.Get("/", a.GetRun)                          // GET /runs/123
					r.Delete("/", a.DeleteRun)                    // DELETE /runs/123
					r.Get("/alerts", a.ListRunAlerts)             // GET /runs/123/alerts{?flagged}
					r.Get("/observations", a.ListRunObservations) // GET /runs/123/observations{?event}
					r.Get("/report.csv", a.ReportRun)             // GET /runs/123/report.csv
				})
			})
		})

		// Dashboard data
		r.Post("/dashdata/login", Login(s.Config)) // POST /dashdata/login
		// Require JWT Authentication
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.Config))
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Route("/dashdata", func(r chi.Router) {
				r.Get("/data", a.GetDashboardData)      // GET /dashdata/data
				r.Get("/noisiest", a.GetNoisiestEvents) // GET /dashdata/noisiest{?limit}
				// these dashboard routes allow alt authentication before accessing run data
				r.With(paginate).Get("/runs", a.ListRuns)      // GET /dashdata/runs
				r.Get("/runs/{runID}/alerts", a.ListRunAlerts) // GET /dashdata/runs/123/alerts
				r.Delete("/runs/{runID}", a.DeleteRun)         // DELETE /dashdata/runs/123
			})
		})

	})

	return r
}

// paginate middleware
func paginate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// default values
		page := 1
		perPage := 20

		// read query parameters
		q := r.URL.Query()
		if p := q.Get("page"); p != "" {
			if val, err := strconv.Atoi(p); err == nil && val > 0 {
				page = val
			}
		}
		if pp := q.Get("per_page"); pp != "" {
			if val, err := strconv.Atoi(pp); err == nil && val > 0 {
				perPage = val
			}
		}

		// add to context
		ctx := context.WithValue(r.Context(), api.PageKey, page)
		ctx = context.WithValue(ctx, api.PerPageKey, perPage)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// notFoundProblemDetail formats not found errors as problem details, for the sake of consistency.
func notFoundProblemDetail(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{"type": "about:blank", "title": "Endpoint not found."}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)

	json.NewEncoder(w).Encode(response)
}
