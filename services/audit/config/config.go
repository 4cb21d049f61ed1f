// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads service configuration from an optional yaml file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Thresholds holds the evaluation tuning knobs. Both values live on the
// 0-4 score scale.
type Thresholds struct {
	// Conflict is the maximum tolerated difference between the two
	// auditors' desk scores on one instrument.
	Conflict float64 `yaml:"conflict" validate:"gte=0,lte=4"`

	// Divergence is the per-cycle auditor-vs-peer mean difference above
	// which a trend summary is flagged.
	Divergence float64 `yaml:"divergence" validate:"gte=0,lte=4"`
}

// Storage holds the persistence settings.
type Storage struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// Config is the full service configuration.
type Config struct {
	Port       int        `yaml:"port" validate:"gte=1,lte=65535"`
	Thresholds Thresholds `yaml:"thresholds"`
	Storage    Storage    `yaml:"storage"`

	// UnitDirectory is the path to the unit directory yaml file.
	// Empty disables directory lookups.
	UnitDirectory string `yaml:"unit_directory"`

	// OTelEndpoint is the OTLP collector address. Empty disables trace
	// export.
	OTelEndpoint string `yaml:"otel_endpoint"`
}

// Default returns the canonical configuration.
func Default() Config {
	return Config{
		Port: 12310,
		Thresholds: Thresholds{
			Conflict:   0.5,
			Divergence: 0.5,
		},
		Storage: Storage{Path: "data/auditcore"},
	}
}

// Load reads the yaml file at path (skipped when path is empty or the
// file does not exist), applies environment overrides, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Optional file; defaults plus env apply.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnvInt("AUDITCORE_PORT", cfg.Port)
	cfg.Storage.Path = getEnvString("AUDITCORE_DB_PATH", cfg.Storage.Path)
	cfg.UnitDirectory = getEnvString("AUDITCORE_UNIT_DIRECTORY", cfg.UnitDirectory)
	cfg.OTelEndpoint = getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTelEndpoint)
	cfg.Thresholds.Conflict = getEnvFloat("AUDITCORE_CONFLICT_THRESHOLD", cfg.Thresholds.Conflict)
	cfg.Thresholds.Divergence = getEnvFloat("AUDITCORE_DIVERGENCE_THRESHOLD", cfg.Thresholds.Divergence)
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
