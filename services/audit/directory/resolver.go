// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package directory resolves organizational unit codes to unit metadata.
// The directory is an external collaborator; a failed lookup is reported
// but never blocks the surrounding mutation.
package directory

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownUnit indicates the code is not present in the directory.
var ErrUnknownUnit = errors.New("unknown unit code")

// Unit is the directory's metadata for one organizational unit.
type Unit struct {
	Code     string `yaml:"code" json:"code"`
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
}

// Resolver looks up unit metadata by code.
type Resolver interface {
	Lookup(code string) (Unit, error)
}

// StaticResolver serves lookups from an in-memory table, typically
// seeded from a yaml file at startup.
type StaticResolver struct {
	mu    sync.RWMutex
	units map[string]Unit
}

// NewStaticResolver builds a resolver over the given units.
func NewStaticResolver(units []Unit) *StaticResolver {
	m := make(map[string]Unit, len(units))
	for _, u := range units {
		m[u.Code] = u
	}
	return &StaticResolver{units: m}
}

// LoadFile reads a yaml unit directory:
//
//	units:
//	  - code: TMP
//	    name: Teknologi Mekanisasi Pertanian
//	    category: prodi
func LoadFile(path string) (*StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit directory %s: %w", path, err)
	}

	var doc struct {
		Units []Unit `yaml:"units"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse unit directory %s: %w", path, err)
	}
	return NewStaticResolver(doc.Units), nil
}

// Lookup implements Resolver.
func (r *StaticResolver) Lookup(code string) (Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.units[code]
	if !ok {
		return Unit{}, fmt.Errorf("%q: %w", code, ErrUnknownUnit)
	}
	return u, nil
}
