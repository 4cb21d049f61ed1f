// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 12310, cfg.Port)
	assert.Equal(t, 0.5, cfg.Thresholds.Conflict)
	assert.Equal(t, 0.5, cfg.Thresholds.Divergence)
	assert.Equal(t, "data/auditcore", cfg.Storage.Path)
	assert.False(t, cfg.Storage.InMemory)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auditcore.yaml")
	raw := `port: 9090
thresholds:
  conflict: 1.0
  divergence: 0.25
storage:
  path: /var/lib/auditcore
unit_directory: data/units.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 1.0, cfg.Thresholds.Conflict)
	assert.Equal(t, 0.25, cfg.Thresholds.Divergence)
	assert.Equal(t, "/var/lib/auditcore", cfg.Storage.Path)
	assert.Equal(t, "data/units.yaml", cfg.UnitDirectory)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUDITCORE_PORT", "8123")
	t.Setenv("AUDITCORE_CONFLICT_THRESHOLD", "0.75")
	t.Setenv("AUDITCORE_DB_PATH", "/tmp/auditcore-db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Port)
	assert.Equal(t, 0.75, cfg.Thresholds.Conflict)
	assert.Equal(t, "/tmp/auditcore-db", cfg.Storage.Path)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("AUDITCORE_PORT", "70000")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
