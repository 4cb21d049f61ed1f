// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package finding

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Update is a partial mutation of a finding. Nil fields are untouched.
// Status is deliberately absent: it is derived, never set by callers.
type Update struct {
	Description      *string    `json:"description,omitempty"`
	RootCause        *string    `json:"root_cause,omitempty"`
	CorrectiveAction *string    `json:"corrective_action,omitempty"`
	RiskLevel        *RiskLevel `json:"risk_level,omitempty"`
	Type             *Type      `json:"type,omitempty"`

	RemediationPlan        *string    `json:"remediation_plan,omitempty"`
	TargetDate             *time.Time `json:"target_date,omitempty"`
	RemediationEvidenceRef *string    `json:"remediation_evidence_ref,omitempty"`

	VerificationRemark *string              `json:"verification_remark,omitempty"`
	Verification       *VerificationOutcome `json:"verification,omitempty"`
}

func (u Update) empty() bool {
	return u.Description == nil && u.RootCause == nil && u.CorrectiveAction == nil &&
		u.RiskLevel == nil && u.Type == nil && u.RemediationPlan == nil &&
		u.TargetDate == nil && u.RemediationEvidenceRef == nil &&
		u.VerificationRemark == nil && u.Verification == nil
}

// touchesRemediation reports whether the update sets any of the fields
// that start the corrective action.
func (u Update) touchesRemediation() bool {
	return u.RemediationPlan != nil || u.TargetDate != nil || u.RemediationEvidenceRef != nil
}

// Apply mutates the finding under the lifecycle rules.
//
// Description:
//
//	Guards are evaluated against the finding as read, before any field is
//	written; callers must invoke Apply inside the store's per-entity
//	critical section so the guard sees the freshly persisted state.
//
//	Derived transitions:
//	  - first remediation field set while Terbuka  => Proses RTL
//	  - verification Sesuai                        => Selesai
//	  - any other verification outcome             => stays Proses RTL
//
//	Every successful Apply prepends exactly one history entry describing
//	the mutation.
//
// Outputs:
//
//	error - ErrFindingClosed, ErrNoFields, ErrInvalidOutcome,
//	        ErrInvalidRiskLevel, ErrInvalidType, ErrInvalidActorRole, or
//	        ErrVerificationBeforeAction. The finding is untouched on error.
func (f *Finding) Apply(u Update, actor Actor) error {
	if f.Status == StatusClosed {
		return ErrFindingClosed
	}
	if u.empty() {
		return ErrNoFields
	}
	if !actor.Role.Valid() {
		return ErrInvalidActorRole
	}
	if u.RiskLevel != nil && !u.RiskLevel.Valid() {
		return ErrInvalidRiskLevel
	}
	if u.Type != nil && !u.Type.Valid() {
		return ErrInvalidType
	}
	if u.Verification != nil {
		if !u.Verification.Valid() {
			return ErrInvalidOutcome
		}
		if f.Status == StatusOpen {
			return ErrVerificationBeforeAction
		}
	}

	if u.Description != nil {
		f.Description = *u.Description
	}
	if u.RootCause != nil {
		f.RootCause = *u.RootCause
	}
	if u.CorrectiveAction != nil {
		f.CorrectiveAction = *u.CorrectiveAction
	}
	if u.RiskLevel != nil {
		f.RiskLevel = *u.RiskLevel
	}
	if u.Type != nil {
		f.Type = *u.Type
	}
	if u.RemediationPlan != nil {
		f.RemediationPlan = *u.RemediationPlan
	}
	if u.TargetDate != nil {
		td := *u.TargetDate
		f.TargetDate = &td
	}
	if u.RemediationEvidenceRef != nil {
		f.RemediationEvidenceRef = *u.RemediationEvidenceRef
	}
	if u.VerificationRemark != nil {
		f.VerificationRemark = *u.VerificationRemark
	}
	if u.Verification != nil {
		f.Verification = *u.Verification
	}

	// Derived status. Setting remediation fields past Terbuka never
	// regresses the state.
	switch {
	case u.Verification != nil && *u.Verification == OutcomeConfirmed:
		f.Status = StatusClosed
	case u.Verification != nil:
		f.Status = StatusActionInProgress
	case u.touchesRemediation() && f.Status == StatusOpen:
		f.Status = StatusActionInProgress
	}

	now := time.Now().UTC()
	f.UpdatedAt = now
	f.logAction(actor, describe(u), now)
	return nil
}

// describe builds the human-readable history action for an update.
func describe(u Update) string {
	switch {
	case u.Verification != nil:
		return fmt.Sprintf("recorded verification: %s", *u.Verification)
	case u.RemediationEvidenceRef != nil && *u.RemediationEvidenceRef != "":
		return fmt.Sprintf("uploaded remediation evidence: %s", *u.RemediationEvidenceRef)
	}

	fields := make([]string, 0, 8)
	if u.Description != nil {
		fields = append(fields, "description")
	}
	if u.RootCause != nil {
		fields = append(fields, "root_cause")
	}
	if u.CorrectiveAction != nil {
		fields = append(fields, "corrective_action")
	}
	if u.RiskLevel != nil {
		fields = append(fields, "risk_level")
	}
	if u.Type != nil {
		fields = append(fields, "type")
	}
	if u.RemediationPlan != nil {
		fields = append(fields, "remediation_plan")
	}
	if u.TargetDate != nil {
		fields = append(fields, "target_date")
	}
	if u.RemediationEvidenceRef != nil {
		fields = append(fields, "remediation_evidence_ref")
	}
	if u.VerificationRemark != nil {
		fields = append(fields, "verification_remark")
	}
	sort.Strings(fields)
	return "updated fields: " + strings.Join(fields, ", ")
}
