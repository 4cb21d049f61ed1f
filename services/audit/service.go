// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package audit exposes the audit evaluation and finding-resolution core
// over HTTP.
//
// The package is the composition point: domain rules live in the
// evaluation, clarification, finding, and trend packages; persistence
// behind storage.Store; external collaborators behind analysis.Analyzer
// and directory.Resolver. The Service methods run every mutation through
// the store's per-entity critical section, so guards always see the
// freshly persisted state.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/analysis"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/clarification"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/directory"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/evaluation"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/finding"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/storage"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/trend"
)

// ServiceConfig holds the tuning knobs for the audit core.
type ServiceConfig struct {
	// ConflictThreshold is the maximum tolerated desk-score difference
	// between the two auditors on one instrument. Zero means the default.
	ConflictThreshold float64

	// DivergenceThreshold flags trend summaries whose auditor-vs-peer
	// mean difference exceeds it. Zero means the default.
	DivergenceThreshold float64
}

// DefaultServiceConfig returns the canonical thresholds.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ConflictThreshold:   evaluation.DefaultConflictThreshold,
		DivergenceThreshold: trend.DefaultDivergenceThreshold,
	}
}

// Service implements the audit core operations over a Store.
type Service struct {
	store    storage.Store
	analyzer analysis.Analyzer
	units    directory.Resolver
	metrics  *Metrics
	cfg      ServiceConfig
}

// NewService creates the audit service.
//
// analyzer and units may be nil; finding creation then skips the
// corresponding enrichment. metrics may be nil in tests.
func NewService(store storage.Store, analyzer analysis.Analyzer, units directory.Resolver, metrics *Metrics, cfg ServiceConfig) *Service {
	if cfg.ConflictThreshold <= 0 {
		cfg.ConflictThreshold = evaluation.DefaultConflictThreshold
	}
	if cfg.DivergenceThreshold <= 0 {
		cfg.DivergenceThreshold = trend.DefaultDivergenceThreshold
	}
	return &Service{
		store:    store,
		analyzer: analyzer,
		units:    units,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// CreateInstrument seeds one checklist instrument. The auditor pair must
// be two distinct non-empty ids.
func (s *Service) CreateInstrument(ctx context.Context, req CreateInstrumentRequest) (*evaluation.Instrument, error) {
	if req.AuditorIDs[0] == "" || req.AuditorIDs[1] == "" || req.AuditorIDs[0] == req.AuditorIDs[1] {
		return nil, evaluation.ErrAuditorPairRequired
	}

	inst := &evaluation.Instrument{
		ID:               req.ID,
		StandardCode:     req.StandardCode,
		UnitCode:         req.UnitCode,
		Question:         req.Question,
		RequiredEvidence: req.RequiredEvidence,
		Weight:           req.Weight,
		AuditorIDs:       req.AuditorIDs,
	}
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}

	if err := s.store.CreateInstrument(ctx, inst); err != nil {
		return nil, err
	}
	s.metrics.mutation("instrument", "create")
	return inst, nil
}

// GetInstrument returns the instrument with its derived fields.
func (s *Service) GetInstrument(ctx context.Context, id string) (*evaluation.Instrument, error) {
	return s.store.GetInstrument(ctx, id)
}

// SubmitEvaluation records one auditor's evaluation and returns the
// instrument with its refreshed derived fields. Resubmission by the same
// auditor overwrites that auditor's slot only.
func (s *Service) SubmitEvaluation(ctx context.Context, instrumentID string, req SubmitEvaluationRequest) (*evaluation.Instrument, error) {
	eval := evaluation.AuditorEvaluation{
		EvidenceStatus: req.EvidenceStatus,
		DeskScore:      req.DeskScore,
		DeskRemark:     req.DeskRemark,
		FieldScore:     req.FieldScore,
		FieldRemark:    req.FieldRemark,
		RejectionNote:  req.RejectionNote,
		IsComplete:     req.IsComplete,
		SubmittedAt:    time.Now().UTC(),
	}

	inst, err := s.store.UpdateInstrument(ctx, instrumentID, func(i *evaluation.Instrument) error {
		return evaluation.SubmitEvaluation(i, req.AuditorID, eval, s.cfg.ConflictThreshold)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.mutation("instrument", "update")
	if inst.HasConflict {
		s.metrics.conflictDetected()
		slog.InfoContext(ctx, "Score conflict detected",
			"instrument_id", inst.ID,
			"effective_score", inst.EffectiveScore)
	}
	return inst, nil
}

// OpenClarification opens a dispute thread with its initial message.
func (s *Service) OpenClarification(ctx context.Context, req OpenClarificationRequest) (*clarification.Thread, error) {
	t, err := clarification.Open(req.ResponseID, req.OpenerRole, req.Sender, req.Text, req.AttachmentRef)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateThread(ctx, t); err != nil {
		return nil, err
	}
	s.metrics.mutation("thread", "create")
	s.metrics.threadEvent("opened")
	return t, nil
}

// GetClarification returns the thread with its full conversation.
func (s *Service) GetClarification(ctx context.Context, id string) (*clarification.Thread, error) {
	return s.store.GetThread(ctx, id)
}

// PostClarificationMessage appends a message and applies the resulting
// state transition.
func (s *Service) PostClarificationMessage(ctx context.Context, threadID string, req PostMessageRequest) (*clarification.Thread, error) {
	t, err := s.store.UpdateThread(ctx, threadID, func(t *clarification.Thread) error {
		return t.Post(req.Sender, req.Role, req.Text, req.AttachmentRef)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.mutation("thread", "update")
	return t, nil
}

// CloseClarification resolves the thread. Closing twice fails.
func (s *Service) CloseClarification(ctx context.Context, threadID string) (*clarification.Thread, error) {
	t, err := s.store.UpdateThread(ctx, threadID, func(t *clarification.Thread) error {
		return t.Close()
	})
	if err != nil {
		return nil, err
	}
	s.metrics.mutation("thread", "close")
	s.metrics.threadEvent("closed")
	return t, nil
}

// CreateFinding records a nonconformity, enriched best-effort by the
// analysis service. An analysis failure never blocks the save; the
// second return value reports whether a suggestion was applied.
func (s *Service) CreateFinding(ctx context.Context, req CreateFindingRequest) (*finding.Finding, bool, error) {
	f, err := finding.New(req.Description, req.RiskLevel, req.Type, req.UnitCode, req.StandardCode, req.Actor.actor())
	if err != nil {
		return nil, false, err
	}

	if s.units != nil && req.UnitCode != "" {
		if _, err := s.units.Lookup(req.UnitCode); err != nil {
			// Unresolved units are stored as given.
			slog.WarnContext(ctx, "Unit code not in directory",
				"unit_code", req.UnitCode,
				"error", err)
		}
	}

	suggested := false
	if s.analyzer != nil {
		suggestion, err := s.analyzer.SuggestRemediation(ctx, req.Description)
		if err != nil {
			s.metrics.analysisFallback()
			slog.WarnContext(ctx, "Analysis service unavailable, saving finding without suggestion",
				"error", err)
		} else {
			f.RootCause = suggestion.RootCause
			f.CorrectiveAction = suggestion.CorrectiveAction
			suggested = true
		}
	}

	if err := s.store.CreateFinding(ctx, f); err != nil {
		return nil, false, err
	}
	s.metrics.mutation("finding", "create")
	s.metrics.findingTransition(string(f.Status))
	return f, suggested, nil
}

// GetFinding returns the finding with its full history.
func (s *Service) GetFinding(ctx context.Context, id string) (*finding.Finding, error) {
	return s.store.GetFinding(ctx, id)
}

// ListFindings returns all findings.
func (s *Service) ListFindings(ctx context.Context) ([]finding.Finding, error) {
	return s.store.ListFindings(ctx)
}

// UpdateFinding applies a partial mutation under the lifecycle rules and
// returns the finding with its derived status and new history entry.
func (s *Service) UpdateFinding(ctx context.Context, id string, req UpdateFindingRequest) (*finding.Finding, error) {
	var before finding.Status
	f, err := s.store.UpdateFinding(ctx, id, func(f *finding.Finding) error {
		before = f.Status
		return f.Apply(req.Update, req.Actor.actor())
	})
	if err != nil {
		return nil, err
	}

	s.metrics.mutation("finding", "update")
	if f.Status != before {
		s.metrics.findingTransition(string(f.Status))
		slog.InfoContext(ctx, "Finding status transition",
			"finding_id", f.ID,
			"from", before,
			"to", f.Status)
	}
	return f, nil
}

// Trend reports the auditor's per-cycle scoring consistency over all
// archived cycles.
func (s *Service) Trend(ctx context.Context, auditorID string) ([]trend.Summary, error) {
	cycles, err := s.store.ListCycles(ctx)
	if err != nil {
		return nil, err
	}
	return trend.Analyze(cycles, auditorID, s.cfg.DivergenceThreshold), nil
}

// CloseCycle archives the current instrument set under the given name.
// Cycle names are write-once; reusing one fails with ErrCycleFrozen.
func (s *Service) CloseCycle(ctx context.Context, name string) (*evaluation.HistoricalCycle, error) {
	instruments, err := s.store.ListInstruments(ctx)
	if err != nil {
		return nil, err
	}

	cycle := evaluation.HistoricalCycle{
		Name:        name,
		ClosedAt:    time.Now().UTC(),
		Instruments: instruments,
	}
	if err := s.store.PutCycle(ctx, cycle); err != nil {
		return nil, err
	}

	s.metrics.mutation("cycle", "create")
	slog.InfoContext(ctx, "Cycle archived",
		"cycle", name,
		"instruments", len(instruments))
	return &cycle, nil
}
