// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"sort"
	"time"
)

// DashboardData data model
type SourceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ChartDataPoint struct {
	Day  string `json:"day"`
	Runs int    `json:"runs"`
}

type EventActivityData struct {
	Event        string  `json:"event"`
	Observations int     `json:"observations"`
	MeanValue    float64 `json:"meanValue"`
}

type DashboardData struct {
	TotalRuns         int              `json:"totalRuns"`
	TotalObservations int              `json:"totalObservations"`
	TotalAlerts       int              `json:"totalAlerts"`
	FlaggedDays       int              `json:"flaggedDays"`
	RunsLastWeek      int              `json:"runsLastWeek"`
	RunsLastDay       int              `json:"runsLastDay"`
	OldestRunDate     string           `json:"oldestRunDate"`
	LatestRunDate     string           `json:"latestRunDate"`
	AlertRate         float64          `json:"alertRate"` // flagged days / scored days
	Sources           []SourceCount    `json:"sources"`
	ChartData         []ChartDataPoint `json:"chartData"`
}

// GetDashboard provides a summary of key metrics and statistics about the system.
func (s dashboardStore) GetDashboard() (*DashboardData, error) {
	var data DashboardData

	// Temporary variables for counts (GORM uses int64)
	var totalRuns, totalObservations, totalAlerts, flaggedDays int64

	// Count total runs
	if err := s.db.Model(&Run{}).Count(&totalRuns).Error; err != nil {
		return nil, err
	}
	data.TotalRuns = int(totalRuns)

	// Count total observations
	if err := s.db.Model(&Observation{}).Count(&totalObservations).Error; err != nil {
		return nil, err
	}
	data.TotalObservations = int(totalObservations)

	// Count scored days
	if err := s.db.Model(&Alert{}).Count(&totalAlerts).Error; err != nil {
		return nil, err
	}
	data.TotalAlerts = int(totalAlerts)

	// Count flagged days
	if err := s.db.Model(&Alert{}).Where("flagged = ?", true).Count(&flaggedDays).Error; err != nil {
		return nil, err
	}
	data.FlaggedDays = int(flaggedDays)

	if data.TotalAlerts > 0 {
		data.AlertRate = float64(data.FlaggedDays) / float64(data.TotalAlerts)
	}

	// Dates for period calculations
	now := time.Now()
	lastWeek := now.AddDate(0, 0, -7)
	lastDay := now.AddDate(0, 0, -1)

	// Temporary variables for period counts
	var runsLastWeek, runsLastDay int64

	// Count runs from the last week
	if err := s.db.Model(&Run{}).Where("created_at >= ?", lastWeek).Count(&runsLastWeek).Error; err != nil {
		return nil, err
	}
	data.RunsLastWeek = int(runsLastWeek)

	// Count runs from the last day
	if err := s.db.Model(&Run{}).Where("created_at >= ?", lastDay).Count(&runsLastDay).Error; err != nil {
		return nil, err
	}
	data.RunsLastDay = int(runsLastDay)

	// Date of the oldest run
	var oldestRun Run
	if err := s.db.Model(&Run{}).Order("created_at ASC").First(&oldestRun).Error; err == nil {
		data.OldestRunDate = oldestRun.CreatedAt.Format("2006-01-02")
	}

	// Date of the most recent run
	var latestRun Run
	if err := s.db.Model(&Run{}).Order("created_at DESC").First(&latestRun).Error; err == nil {
		data.LatestRunDate = latestRun.CreatedAt.Format("2006-01-02")
	}

	// Get run sources
	var sources []struct {
		Source string
		Count  int64
	}
	if err := s.db.Model(&Run{}).Select("source, count(*) as count").Group("source").Scan(&sources).Error; err != nil {
		return nil, err
	}

	data.Sources = make([]SourceCount, len(sources))
	for i, sc := range sources {
		data.Sources[i] = SourceCount{
			Name:  sc.Source,
			Count: int(sc.Count),
		}
	}

	// Chart data - runs created per day for the last 30 days
	// Use a simpler approach that works across all database dialects
	// Get all runs from the last 30 days and process them in Go
	last30Days := now.AddDate(0, 0, -30)
	var runs []Run
	if err := s.db.Model(&Run{}).
		Select("created_at").
		Where("created_at >= ?", last30Days).
		Find(&runs).Error; err != nil {
		return nil, err
	}

	// Process data in Go to create daily chart data
	dayCounts := make(map[string]int)
	for _, run := range runs {
		dayKey := run.CreatedAt.Format("2006-01-02")
		dayCounts[dayKey]++
	}

	// Convert to chart data format, in chronological order
	dayKeys := make([]string, 0, len(dayCounts))
	for dayKey := range dayCounts {
		dayKeys = append(dayKeys, dayKey)
	}
	sort.Strings(dayKeys)
	for _, dayKey := range dayKeys {
		if t, err := time.Parse("2006-01-02", dayKey); err == nil {
			data.ChartData = append(data.ChartData, ChartDataPoint{
				Day:  t.Format("Jan 02"),
				Runs: dayCounts[dayKey],
			})
		}
	}

	return &data, nil
}

// GetNoisiestEvents provides the events with the most observations across all runs.
func (s dashboardStore) GetNoisiestEvents(limit int) ([]EventActivityData, error) {
	var events []EventActivityData

	query := s.db.Table("observations").
		Select(`
			observations.event as event,
			count(*) as observations,
			avg(observations.value) as mean_value
		`).
		Group("observations.event").
		Order("observations DESC").
		Limit(limit)

	// Execute the query
	if err := query.Scan(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
