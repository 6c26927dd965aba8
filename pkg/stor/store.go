// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// The stor package manages the storage of our entities.
package stor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type (

	// generic store
	dbStore struct {
		db *gorm.DB
	}

	// entity stores
	runStore         dbStore
	observationStore dbStore
	alertStore       dbStore
	dashboardStore   dbStore

	// Store interface, giving access to specialized interfaces
	Store interface {
		Run() RunRepository
		Observation() ObservationRepository
		Alert() AlertRepository
		Dashboard() DashboardRepository
	}

	// RunRepository interface, defining simulation run operations
	RunRepository interface {
		ListAll() (*[]Run, error)
		List(pageNum, pageSize int) (*[]Run, error)
		FindBySource(source string) (*[]Run, error)
		Count() (int64, error)
		Get(uuid string) (*Run, error)
		Create(r *Run) error
		Update(r *Run) error
		Delete(r *Run) error
	}

	// ObservationRepository interface, defining observation operations
	ObservationRepository interface {
		List(runID string) (*[]Observation, error)
		FindByEvent(runID string, event string) (*[]Observation, error)
		Count(runID string) (int64, error)
		Create(o *Observation) error
		CreateAll(o *[]Observation) error
	}

	// AlertRepository interface, defining alert operations
	AlertRepository interface {
		List(runID string) (*[]Alert, error)
		FindFlagged(runID string) (*[]Alert, error)
		GetByDay(runID string, day int) (*Alert, error)
		Count(runID string) (int64, error)
		Create(a *Alert) error
		CreateAll(a *[]Alert) error
	}

	// DashboardRepository interface, defining dashboard operations
	DashboardRepository interface {
		GetDashboard() (*DashboardData, error)
		GetNoisiestEvents(limit int) ([]EventActivityData, error)
	}
)

// implementation of the different repository interfaces
func (s *dbStore) Run() RunRepository {
	return (*runStore)(s)
}

func (s *dbStore) Observation() ObservationRepository {
	return (*observationStore)(s)
}

func (s *dbStore) Alert() AlertRepository {
	return (*alertStore)(s)
}

// Dashboard implements Store.
func (s *dbStore) Dashboard() DashboardRepository {
	return (*dashboardStore)(s)
}

// List of run source values as strings
const (
	SOURCE_CLI    = "cli"
	SOURCE_API    = "api"
	SOURCE_INGEST = "ingest"
)

// Init initializes the database
func Init(dsn string) (Store, error) {
	var err error

	dialect, cnx := dbFromURI(dsn)
	if dialect == "error" {
		return nil, fmt.Errorf("incorrect database source name: %q", dsn)
	}

	// add parameters specific to the dialect
	cnx = addParamsDialectSpecific(cnx, dialect)

	// database logger
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level (Silent, Error, Warn, Info)
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Enable color
		},
	)

	db, err := gorm.Open(GormDialector(cnx), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		log.Printf("Failed connecting to the database: %v", err)
		return nil, err
	}

	err = performDialectSpecific(db, dialect)
	if err != nil {
		log.Printf("Failed performing dialect specific database init: %v", err)
		return nil, err
	}

	err = db.AutoMigrate(&Run{}, &Observation{}, &Alert{})
	if err != nil {
		log.Printf("Failed performing database automigrate: %v", err)
		return nil, err
	}

	stor := &dbStore{db: db}

	return stor, nil
}

// dbFromURI
func dbFromURI(uri string) (string, string) {
	parts := strings.Split(uri, "://")
	if len(parts) != 2 {
		return "error", ""
	}
	return parts[0], parts[1]
}

// addParamsDialectSpecific takes a connection string and adds parameters specific to the SQL dialect
func addParamsDialectSpecific(cnx, dialect string) string {
	switch dialect {
	case "sqlite3":
		cnx += "?cache=shared&mode=rwc"
	case "mysql":
		cnx += "?charset=utf8mb4&parseTime=True&loc=Local"
	case "postgres":
		cnx += "?sslmode=disable"
	default:
		log.Printf("Invalid dialect: %s", dialect)
	}
	return cnx
}

// performDialectSpecific
func performDialectSpecific(db *gorm.DB, dialect string) error {
	switch dialect {
	case "sqlite3":
		err := db.Exec("PRAGMA journal_mode = WAL").Error
		if err != nil {
			return err
		}
		err = db.Exec("PRAGMA foreign_keys = ON").Error
		if err != nil {
			return err
		}
	case "mysql":
		// nothing , so far
	case "postgres":
		// nothing , so far
	default:
		return fmt.Errorf("invalid dialect: %s", dialect)
	}
	return nil
}
