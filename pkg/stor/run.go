// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Run data model, one simulation run scored by the alert engine
type Run struct {
	gorm.Model
	CreatedAt   time.Time `gorm:"index"` // index on created_at, useful for dashboard queries
	UUID        string    `json:"uuid" validate:"required,uuid" gorm:"type:varchar(100);uniqueIndex"`
	Source      string    `json:"source" validate:"required,oneof=cli api ingest" gorm:"type:varchar(20);index"`
	Days        int       `json:"days" validate:"required,gt=0"`
	Threshold   float64   `json:"threshold"`
	MaxScore    float64   `json:"max_score"`
	FlaggedDays int       `json:"flagged_days"`
}

// Validate checks required fields and values
func (r *Run) Validate() error {

	validate := validator.New()
	return validate.Struct(r)
}

func (s runStore) ListAll() (*[]Run, error) {
	runs := []Run{}
	// security: limited to 1000 results, in descending order of ID to have a stable order
	return &runs, s.db.Limit(1000).Order("id DESC").Find(&runs).Error
}

func (s runStore) List(pageNum, pageSize int) (*[]Run, error) {
	runs := []Run{}
	// pageNum starts at 1
	// result sorted to assure the same order for each request
	return &runs, s.db.Offset((pageNum - 1) * pageSize).Limit(pageSize).Order("id DESC").Find(&runs).Error
}

func (s runStore) FindBySource(source string) (*[]Run, error) {
	runs := []Run{}
	return &runs, s.db.Limit(1000).Find(&runs, "source= ?", source).Error
}

func (s runStore) Count() (int64, error) {
	var count int64
	return count, s.db.Model(Run{}).Count(&count).Error
}

func (s runStore) Get(uuid string) (*Run, error) {
	var run Run
	return &run, s.db.Where("uuid = ?", uuid).First(&run).Error
}

func (s runStore) Create(newRun *Run) error {
	return s.db.Create(newRun).Error
}

func (s runStore) Update(changedRun *Run) error {
	return s.db.Save(changedRun).Error
}

func (s runStore) Delete(deletedRun *Run) error {
	return s.db.Delete(deletedRun).Error
}
