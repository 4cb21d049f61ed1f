// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package finding implements the corrective-action lifecycle for a
// recorded nonconformity.
//
// A finding moves Terbuka -> Proses RTL -> Selesai. The first remediation
// field set while open starts the corrective action; a verification
// outcome of Sesuai closes the finding, any other outcome sends the
// corrective action back for rework. Findings are never deleted; closure
// is a terminal state, not removal. Every mutation prepends a history
// entry, the audit trail of the audit trail.
package finding

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state. The wire values keep the labels the
// quality-management staff work with.
type Status string

const (
	// StatusOpen is the initial state ("Terbuka").
	StatusOpen Status = "Terbuka"
	// StatusActionInProgress means a remediation plan is underway ("Proses RTL").
	StatusActionInProgress Status = "Proses RTL"
	// StatusVerified means remediation evidence passed review ("Terverifikasi").
	StatusVerified Status = "Terverifikasi"
	// StatusClosed is terminal ("Selesai").
	StatusClosed Status = "Selesai"
)

// VerificationOutcome is the auditor's decision on submitted remediation.
type VerificationOutcome string

const (
	// OutcomePending means no verification has been recorded yet.
	OutcomePending VerificationOutcome = "Menunggu"
	// OutcomeConfirmed confirms compliance and closes the finding.
	OutcomeConfirmed VerificationOutcome = "Sesuai"
	// OutcomeRejected sends the corrective action back for rework.
	OutcomeRejected VerificationOutcome = "Belum Sesuai"
)

// Valid reports whether o is a known verification outcome.
func (o VerificationOutcome) Valid() bool {
	switch o {
	case OutcomePending, OutcomeConfirmed, OutcomeRejected:
		return true
	}
	return false
}

// RiskLevel grades the exposure a finding represents.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	return r == RiskHigh || r == RiskMedium || r == RiskLow
}

// Type is the severity class of a finding.
type Type string

const (
	TypeMajor       Type = "major"
	TypeMinor       Type = "minor"
	TypeObservation Type = "observation"
)

// Valid reports whether t is a known finding type.
func (t Type) Valid() bool {
	return t == TypeMajor || t == TypeMinor || t == TypeObservation
}

// ActorRole is the role under which a mutation was performed.
type ActorRole string

const (
	ActorAuditee      ActorRole = "auditee"
	ActorAuditor      ActorRole = "auditor"
	ActorQualityStaff ActorRole = "quality_staff"
	ActorSystem       ActorRole = "system"
)

// Valid reports whether r is a known actor role.
func (r ActorRole) Valid() bool {
	switch r {
	case ActorAuditee, ActorAuditor, ActorQualityStaff, ActorSystem:
		return true
	}
	return false
}

// Actor identifies who performed a mutation.
type Actor struct {
	Name string    `json:"name"`
	Role ActorRole `json:"role"`
}

// HistoryEntry is one line of a finding's mutation log.
type HistoryEntry struct {
	Actor     string    `json:"actor"`
	Role      ActorRole `json:"role"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Finding is a recorded nonconformity requiring corrective action.
type Finding struct {
	ID          string `json:"id"`
	Description string `json:"description"`

	// RootCause and CorrectiveAction may come from a human or from the
	// external text-analysis service.
	RootCause        string `json:"root_cause,omitempty"`
	CorrectiveAction string `json:"corrective_action,omitempty"`

	RiskLevel    RiskLevel `json:"risk_level"`
	Type         Type      `json:"type"`
	UnitCode     string    `json:"unit_code"`
	StandardCode string    `json:"standard_code"`

	Status Status `json:"status"`

	RemediationPlan        string     `json:"remediation_plan,omitempty"`
	TargetDate             *time.Time `json:"target_date,omitempty"`
	RemediationEvidenceRef string     `json:"remediation_evidence_ref,omitempty"`

	VerificationRemark string              `json:"verification_remark,omitempty"`
	Verification       VerificationOutcome `json:"verification"`

	// History is most-recent-first and never truncated or edited.
	History []HistoryEntry `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a finding in the open state with its creation history entry.
func New(description string, risk RiskLevel, ftype Type, unitCode, standardCode string, actor Actor) (*Finding, error) {
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if !risk.Valid() {
		return nil, ErrInvalidRiskLevel
	}
	if !ftype.Valid() {
		return nil, ErrInvalidType
	}
	if !actor.Role.Valid() {
		return nil, ErrInvalidActorRole
	}

	now := time.Now().UTC()
	f := &Finding{
		ID:           uuid.NewString(),
		Description:  description,
		RiskLevel:    risk,
		Type:         ftype,
		UnitCode:     unitCode,
		StandardCode: standardCode,
		Status:       StatusOpen,
		Verification: OutcomePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.logAction(actor, "created finding", now)
	return f, nil
}

func (f *Finding) logAction(actor Actor, action string, at time.Time) {
	// Prepend: most recent first.
	f.History = append([]HistoryEntry{{
		Actor:     actor.Name,
		Role:      actor.Role,
		Action:    action,
		Timestamp: at,
	}}, f.History...)
}
