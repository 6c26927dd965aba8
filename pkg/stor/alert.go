// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

// Alert data model, the daily verdict of the alert engine
type Alert struct {
	ID      uint    `json:"-" gorm:"primaryKey"`
	RunID   string  `json:"-" gorm:"index"`          // implicit foreign key to the related run
	Run     Run     `json:"-" gorm:"references:UUID"` // the alert belongs to the run
	Day     int     `json:"day"`
	Score   float64 `json:"score"`
	Flagged bool    `json:"flagged"`
}

func (s alertStore) List(runID string) (*[]Alert, error) {
	alerts := []Alert{}
	// security: limited to 1000 results
	return &alerts, s.db.Limit(1000).Where("run_id= ?", runID).Order("day ASC").Find(&alerts).Error
}

func (s alertStore) FindFlagged(runID string) (*[]Alert, error) {
	alerts := []Alert{}
	return &alerts, s.db.Where("run_id= ? and flagged= ?", runID, true).Order("day ASC").Find(&alerts).Error
}

func (s alertStore) GetByDay(runID string, day int) (*Alert, error) {
	var alert Alert
	return &alert, s.db.Where("run_id= ? and day= ?", runID, day).First(&alert).Error
}

func (s alertStore) Count(runID string) (int64, error) {
	var count int64
	return count, s.db.Model(Alert{}).Where("run_id= ?", runID).Count(&count).Error
}

func (s alertStore) Create(newAlert *Alert) error {
	return s.db.Create(newAlert).Error
}

func (s alertStore) CreateAll(newAlerts *[]Alert) error {
	if len(*newAlerts) == 0 {
		return nil
	}
	return s.db.Create(newAlerts).Error
}
