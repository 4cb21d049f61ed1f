// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage provides the persistence boundary for all audit
// entities.
//
// The core logic is storage-agnostic: it talks to the Store interface
// and never to a concrete engine. The Update* methods are the
// serialization point for read-modify-write mutations; transition guards
// run inside them against the freshly read entity.
package storage

import (
	"context"
	"errors"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/clarification"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/evaluation"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/finding"
)

var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists indicates a create against an existing id.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrCycleFrozen indicates a write against an archived cycle.
	// Historical cycles are write-once.
	ErrCycleFrozen = errors.New("historical cycle is frozen")
)

// Store persists instruments, clarification threads, findings, and
// historical cycles.
//
// Thread Safety: implementations must serialize each Update* call per
// entity id, so concurrent mutations of one entity never interleave.
// Mutations are all-or-nothing: a cancelled context or a failed mutate
// function leaves no partial state.
type Store interface {
	CreateInstrument(ctx context.Context, inst *evaluation.Instrument) error
	GetInstrument(ctx context.Context, id string) (*evaluation.Instrument, error)
	ListInstruments(ctx context.Context) ([]evaluation.Instrument, error)

	// UpdateInstrument applies mutate to the freshly read instrument and
	// persists the result atomically. A mutate error aborts the write
	// and is returned as-is.
	UpdateInstrument(ctx context.Context, id string, mutate func(*evaluation.Instrument) error) (*evaluation.Instrument, error)

	CreateThread(ctx context.Context, t *clarification.Thread) error
	GetThread(ctx context.Context, id string) (*clarification.Thread, error)
	UpdateThread(ctx context.Context, id string, mutate func(*clarification.Thread) error) (*clarification.Thread, error)

	CreateFinding(ctx context.Context, f *finding.Finding) error
	GetFinding(ctx context.Context, id string) (*finding.Finding, error)
	ListFindings(ctx context.Context) ([]finding.Finding, error)
	UpdateFinding(ctx context.Context, id string, mutate func(*finding.Finding) error) (*finding.Finding, error)

	// PutCycle archives a historical cycle. Cycle names are write-once;
	// overwriting fails with ErrCycleFrozen.
	PutCycle(ctx context.Context, c evaluation.HistoricalCycle) error
	ListCycles(ctx context.Context) ([]evaluation.HistoricalCycle, error)

	Close() error
}
