// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

// Observation data model
// we don't include the full gorm model here, as no update nor soft deletion occurs on observations
type Observation struct {
	ID    uint    `json:"-" gorm:"primaryKey"`
	RunID string  `json:"-" gorm:"index"`          // implicit foreign key to the related run
	Run   Run     `json:"-" gorm:"references:UUID"` // the observation belongs to the run
	Day   int     `json:"day"`
	Event string  `json:"event" gorm:"type:varchar(100);index"`
	Value float64 `json:"value"`
}

func (s observationStore) List(runID string) (*[]Observation, error) {
	observations := []Observation{}
	// security: limited to 5000 results
	return &observations, s.db.Limit(5000).Where("run_id= ?", runID).Order("day ASC, id ASC").Find(&observations).Error
}

func (s observationStore) FindByEvent(runID string, event string) (*[]Observation, error) {
	observations := []Observation{}
	return &observations, s.db.Where("run_id= ? and event= ?", runID, event).Order("day ASC").Find(&observations).Error
}

func (s observationStore) Count(runID string) (int64, error) {
	var count int64
	return count, s.db.Model(Observation{}).Where("run_id= ?", runID).Count(&count).Error
}

func (s observationStore) Create(newObservation *Observation) error {
	return s.db.Create(newObservation).Error
}

func (s observationStore) CreateAll(newObservations *[]Observation) error {
	if len(*newObservations) == 0 {
		return nil
	}
	return s.db.Create(newObservations).Error
}
