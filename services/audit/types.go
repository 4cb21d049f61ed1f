// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package audit

import (
	"time"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/clarification"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/evaluation"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/finding"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/trend"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateInstrumentRequest seeds one audit checklist instrument.
type CreateInstrumentRequest struct {
	ID               string    `json:"id"`
	StandardCode     string    `json:"standard_code" binding:"required"`
	UnitCode         string    `json:"unit_code" binding:"required"`
	Question         string    `json:"question" binding:"required"`
	RequiredEvidence string    `json:"required_evidence"`
	Weight           *float64  `json:"weight"`
	AuditorIDs       [2]string `json:"auditor_ids" binding:"required"`
}

// SubmitEvaluationRequest is one auditor's evaluation of an instrument.
type SubmitEvaluationRequest struct {
	AuditorID      string                    `json:"auditor_id" binding:"required"`
	EvidenceStatus evaluation.EvidenceStatus `json:"evidence_status" binding:"required"`
	DeskScore      *float64                  `json:"desk_score"`
	DeskRemark     string                    `json:"desk_remark"`
	FieldScore     *float64                  `json:"field_score"`
	FieldRemark    string                    `json:"field_remark"`
	RejectionNote  string                    `json:"rejection_note"`
	IsComplete     bool                      `json:"is_complete"`
}

// InstrumentResponse is an instrument with its derived compliance status.
// EffectiveStatus is empty until both auditors have scored.
type InstrumentResponse struct {
	Instrument      evaluation.Instrument `json:"instrument"`
	EffectiveStatus string                `json:"effective_status,omitempty"`
}

// OpenClarificationRequest opens a dispute thread on an audit response.
type OpenClarificationRequest struct {
	ResponseID    string                  `json:"response_id" binding:"required"`
	OpenerRole    clarification.PartyRole `json:"opener_role" binding:"required"`
	Sender        string                  `json:"sender" binding:"required"`
	Text          string                  `json:"text" binding:"required"`
	AttachmentRef string                  `json:"attachment_ref"`
}

// PostMessageRequest appends one message to a clarification thread.
type PostMessageRequest struct {
	Sender        string                  `json:"sender" binding:"required"`
	Role          clarification.PartyRole `json:"role" binding:"required"`
	Text          string                  `json:"text" binding:"required"`
	AttachmentRef string                  `json:"attachment_ref"`
}

// ActorPayload identifies who performs a finding mutation.
type ActorPayload struct {
	Name string            `json:"name" binding:"required"`
	Role finding.ActorRole `json:"role" binding:"required"`
}

func (a ActorPayload) actor() finding.Actor {
	return finding.Actor{Name: a.Name, Role: a.Role}
}

// CreateFindingRequest records a new nonconformity.
type CreateFindingRequest struct {
	Description  string            `json:"description" binding:"required"`
	RiskLevel    finding.RiskLevel `json:"risk_level" binding:"required"`
	Type         finding.Type      `json:"type" binding:"required"`
	UnitCode     string            `json:"unit_code"`
	StandardCode string            `json:"standard_code"`
	Actor        ActorPayload      `json:"actor" binding:"required"`
}

// CreateFindingResponse carries the stored finding and whether the
// analysis service contributed a remediation suggestion.
type CreateFindingResponse struct {
	Finding             finding.Finding `json:"finding"`
	SuggestionAvailable bool            `json:"suggestion_available"`
}

// UpdateFindingRequest is a partial finding mutation.
type UpdateFindingRequest struct {
	finding.Update
	Actor ActorPayload `json:"actor" binding:"required"`
}

// TrendResponse is the per-cycle consistency report for one auditor.
type TrendResponse struct {
	AuditorID string          `json:"auditor_id"`
	Cycles    []trend.Summary `json:"cycles"`
}

// CreateCycleRequest archives the current instrument set under a name.
type CreateCycleRequest struct {
	Name string `json:"name" binding:"required"`
}

// CycleResponse describes an archived cycle without its full snapshot.
type CycleResponse struct {
	Name            string    `json:"name"`
	ClosedAt        time.Time `json:"closed_at"`
	InstrumentCount int       `json:"instrument_count"`
}

// HealthResponse is the health and readiness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
