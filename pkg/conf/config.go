// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package conf manages the configuration of the IDS server and tools.
package conf

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// IDS Server configuration
type Config struct {
	LogLevel   string `yaml:"log_level" envconfig:"log_level"` // "debug", "info", "warn", "error"
	Port       int    `yaml:"port"`
	Dsn        string `yaml:"dsn"`
	Access     `yaml:"access"`
	JWT        `yaml:"jwt"`
	Simulation `yaml:"simulation"`
	Detection  `yaml:"detection"`
	Resources  string   `yaml:"resources"`
	Origins    []string `yaml:"origins"` // CORS allowed origins
}

// Access credentials protecting the private routes
type Access struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// JWT configuration for the dashboard routes
type JWT struct {
	SecretKey string            `yaml:"secret_key" envconfig:"jwt_secret_key"`
	Admin     map[string]string `yaml:"admin"` // username -> password
}

// Simulation file paths used by the activity and analysis engines
type Simulation struct {
	LogsPath          string `yaml:"logs_path" envconfig:"logs_path"`
	LiveLogsPath      string `yaml:"live_logs_path" envconfig:"live_logs_path"`
	BaselinePath      string `yaml:"baseline_path" envconfig:"baseline_path"`
	BaselineStatsPath string `yaml:"baseline_stats_path" envconfig:"baseline_stats_path"`
}

// Detection parameters of the alert engine
type Detection struct {
	// the alert threshold is ThresholdFactor * sum of event weights
	ThresholdFactor float64 `yaml:"threshold_factor" envconfig:"threshold_factor"`
	// templated link to a day report, e.g. https://ids.example.org/runs/{run_id}/days/{day}
	AlertLink string `yaml:"alert_link" envconfig:"alert_link"`
}

// Init initializes the configuration from an optional config file
// and from environment variables prefixed by "IDS_"
func Init(configFile string) (*Config, error) {

	var c Config

	if configFile != "" {
		f, _ := filepath.Abs(configFile)
		yamlData, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		err = yaml.Unmarshal(yamlData, &c)
		if err != nil {
			return nil, err
		}
	}

	// environment variables override the config file
	err := envconfig.Process("ids", &c)
	if err != nil {
		return nil, err
	}

	setDefaults(&c)

	return &c, nil
}

func setDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = 8081
	}
	if c.Simulation.LogsPath == "" {
		c.Simulation.LogsPath = "logs.txt"
	}
	if c.Simulation.LiveLogsPath == "" {
		c.Simulation.LiveLogsPath = "live_logs.txt"
	}
	if c.Simulation.BaselinePath == "" {
		c.Simulation.BaselinePath = "baseline.txt"
	}
	if c.Simulation.BaselineStatsPath == "" {
		c.Simulation.BaselineStatsPath = "baseline_statistics.txt"
	}
	if c.Detection.ThresholdFactor == 0 {
		c.Detection.ThresholdFactor = 2
	}
}
