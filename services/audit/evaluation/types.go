// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package evaluation implements the dual-auditor evaluation model.
//
// An instrument accumulates up to two independent auditor evaluations.
// The package owns the invariants around the assigned-auditor pair and
// the derived fields (effective score, conflict flag), which are
// recomputed on every write and never set directly by callers.
package evaluation

import "time"

// EvidenceStatus tracks the review state of an instrument's uploaded
// evidence from one auditor's perspective.
type EvidenceStatus string

const (
	EvidenceMissing       EvidenceStatus = "missing"
	EvidencePendingReview EvidenceStatus = "pending_review"
	EvidenceApproved      EvidenceStatus = "approved"
	EvidenceRejected      EvidenceStatus = "rejected"
)

// Valid reports whether s is a known evidence status.
func (s EvidenceStatus) Valid() bool {
	switch s {
	case EvidenceMissing, EvidencePendingReview, EvidenceApproved, EvidenceRejected:
		return true
	}
	return false
}

// AuditorEvaluation is one auditor's assessment of one instrument.
// It is owned exclusively by the instrument that contains it.
type AuditorEvaluation struct {
	EvidenceStatus EvidenceStatus `json:"evidence_status"`

	// DeskScore is the document-review score on the 0-4 scale.
	DeskScore  *float64 `json:"desk_score,omitempty"`
	DeskRemark string   `json:"desk_remark,omitempty"`

	// FieldScore is the field-visit score on the 0-4 scale.
	FieldScore  *float64 `json:"field_score,omitempty"`
	FieldRemark string   `json:"field_remark,omitempty"`

	// RejectionNote carries the feedback when evidence is rejected.
	RejectionNote string `json:"rejection_note,omitempty"`

	// IsComplete marks the evaluation as finalized by its auditor.
	// Finalized evaluations may still be resubmitted; revision before
	// cycle close is the norm.
	IsComplete bool `json:"is_complete"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// Instrument is one audit checklist item bound to one standard and one
// target organizational unit. Instruments are never deleted; at cycle
// close they are archived into a HistoricalCycle.
type Instrument struct {
	ID               string `json:"id"`
	StandardCode     string `json:"standard_code"`
	UnitCode         string `json:"unit_code"`
	Question         string `json:"question"`
	RequiredEvidence string `json:"required_evidence"`

	// Weight scales this instrument in weighted aggregates. Nil means 1.
	Weight *float64 `json:"weight,omitempty"`

	// EvidenceRef is an opaque reference to uploaded evidence.
	EvidenceRef string `json:"evidence_ref,omitempty"`

	// AuditorIDs is the assigned auditor pair. Both evaluation-map keys
	// must be members of this pair.
	AuditorIDs [2]string `json:"auditor_ids"`

	// Evaluations is keyed by auditor id and never holds more than two
	// entries. Mutate only through SubmitEvaluation.
	Evaluations map[string]AuditorEvaluation `json:"evaluations,omitempty"`

	// FinalDeskScore is the consensus desk score recorded when the desk
	// evaluation is finalized by the surrounding workflow.
	FinalDeskScore *float64 `json:"final_desk_score,omitempty"`

	// AuditScore is the final score from audit execution. When present
	// it takes precedence over FinalDeskScore in aggregates.
	AuditScore *float64 `json:"audit_score,omitempty"`

	// EffectiveScore and HasConflict are derived. They are refreshed on
	// every evaluation submit or revision and must not be set directly.
	EffectiveScore *float64 `json:"effective_score,omitempty"`
	HasConflict    bool     `json:"has_conflict"`
}

// FinalScore implements scoring.Scorable: the final audit score when
// present, otherwise the final desk score.
func (i *Instrument) FinalScore() (float64, bool) {
	if i.AuditScore != nil {
		return *i.AuditScore, true
	}
	if i.FinalDeskScore != nil {
		return *i.FinalDeskScore, true
	}
	return 0, false
}

// ScoreWeight implements scoring.Scorable with a default weight of 1.
func (i *Instrument) ScoreWeight() float64 {
	if i.Weight == nil {
		return 1
	}
	return *i.Weight
}

// Assigned reports whether auditorID is a member of the instrument's
// assigned auditor pair.
func (i *Instrument) Assigned(auditorID string) bool {
	return auditorID != "" && (auditorID == i.AuditorIDs[0] || auditorID == i.AuditorIDs[1])
}

// Peer returns the other member of the auditor pair, or "" when
// auditorID is not assigned.
func (i *Instrument) Peer(auditorID string) string {
	switch auditorID {
	case i.AuditorIDs[0]:
		return i.AuditorIDs[1]
	case i.AuditorIDs[1]:
		return i.AuditorIDs[0]
	}
	return ""
}

// HistoricalCycle is an immutable snapshot of a cycle's instruments with
// their final evaluations as they stood at cycle close. Write-once.
type HistoricalCycle struct {
	Name        string       `json:"name"`
	ClosedAt    time.Time    `json:"closed_at"`
	Instruments []Instrument `json:"instruments"`
}
