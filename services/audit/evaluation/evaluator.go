// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package evaluation

import (
	"math"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/scoring"
)

// DefaultConflictThreshold is the canonical maximum tolerated absolute
// difference between the two auditors' desk scores, roughly half a
// compliance band on the 0-4 scale. Treat as configuration; do not inline.
const DefaultConflictThreshold = 0.5

// SubmitEvaluation records one auditor's evaluation on the instrument and
// refreshes the derived fields.
//
// Description:
//
//	Validates the submission against the instrument's assigned pair and
//	the score domain, overwrites any prior evaluation from the same
//	auditor (revision before finalization is the norm), and recomputes
//	EffectiveScore and HasConflict. The two auditors' slots are
//	independent; a resubmission only ever replaces its own slot.
//
// Inputs:
//
//	inst - The instrument to mutate. Must not be nil.
//	auditorID - Submitting auditor. Must be a member of the assigned pair.
//	eval - The evaluation to record.
//	conflictThreshold - Maximum tolerated desk-score difference.
//
// Outputs:
//
//	error - ErrAuditorPairRequired, ErrUnassignedAuditor,
//	        ErrInvalidEvidenceStatus, ErrScoreOutOfRange, or
//	        ErrRejectionNoteRequired. The instrument is untouched on error.
func SubmitEvaluation(inst *Instrument, auditorID string, eval AuditorEvaluation, conflictThreshold float64) error {
	if inst.AuditorIDs[0] == "" || inst.AuditorIDs[1] == "" {
		return ErrAuditorPairRequired
	}
	if !inst.Assigned(auditorID) {
		return ErrUnassignedAuditor
	}
	if !eval.EvidenceStatus.Valid() {
		return ErrInvalidEvidenceStatus
	}
	if !inRange(eval.DeskScore) || !inRange(eval.FieldScore) {
		return ErrScoreOutOfRange
	}
	if eval.EvidenceStatus == EvidenceRejected && eval.RejectionNote == "" {
		return ErrRejectionNoteRequired
	}

	if inst.Evaluations == nil {
		inst.Evaluations = make(map[string]AuditorEvaluation, 2)
	}
	inst.Evaluations[auditorID] = eval

	Recompute(inst, conflictThreshold)
	return nil
}

// Recompute refreshes the instrument's derived fields from its current
// evaluations. Called on every write path that touches an evaluation;
// callers never set EffectiveScore or HasConflict themselves.
func Recompute(inst *Instrument, conflictThreshold float64) {
	s1, ok1 := deskScore(inst, inst.AuditorIDs[0])
	s2, ok2 := deskScore(inst, inst.AuditorIDs[1])

	if !ok1 || !ok2 {
		inst.EffectiveScore = nil
		inst.HasConflict = false
		return
	}

	mean := (s1 + s2) / 2
	inst.EffectiveScore = &mean
	inst.HasConflict = math.Abs(s1-s2) > conflictThreshold
}

// EffectiveStatus classifies the instrument's effective score, when one
// exists. ok is false while fewer than two desk scores are present.
func EffectiveStatus(inst *Instrument) (scoring.ComplianceStatus, bool) {
	if inst.EffectiveScore == nil {
		return "", false
	}
	return scoring.Classify(*inst.EffectiveScore), true
}

func deskScore(inst *Instrument, auditorID string) (float64, bool) {
	ev, ok := inst.Evaluations[auditorID]
	if !ok || ev.DeskScore == nil {
		return 0, false
	}
	return *ev.DeskScore, true
}

func inRange(score *float64) bool {
	if score == nil {
		return true
	}
	return *score >= scoring.ScoreMin && *score <= scoring.ScoreMax
}
