// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/scoring"
)

func newInstrument() *Instrument {
	return &Instrument{
		ID:           "inst-1",
		StandardCode: "STD-04",
		UnitCode:     "TMP",
		Question:     "Rasio dosen terhadap mahasiswa memenuhi standar?",
		AuditorIDs:   [2]string{"aud-1", "aud-2"},
	}
}

func deskEval(score float64) AuditorEvaluation {
	return AuditorEvaluation{
		EvidenceStatus: EvidenceApproved,
		DeskScore:      &score,
	}
}

// TestSubmitEvaluation_RejectsUnassigned verifies the two-auditor cap is a
// hard invariant at the mutation boundary.
func TestSubmitEvaluation_RejectsUnassigned(t *testing.T) {
	inst := newInstrument()

	err := SubmitEvaluation(inst, "aud-99", deskEval(3), DefaultConflictThreshold)
	assert.ErrorIs(t, err, ErrUnassignedAuditor)
	assert.Empty(t, inst.Evaluations, "rejected submission must not write")
}

// TestSubmitEvaluation_RequiresPair verifies instruments without an
// assigned pair accept no evaluations.
func TestSubmitEvaluation_RequiresPair(t *testing.T) {
	inst := newInstrument()
	inst.AuditorIDs = [2]string{}

	err := SubmitEvaluation(inst, "aud-1", deskEval(3), DefaultConflictThreshold)
	assert.ErrorIs(t, err, ErrAuditorPairRequired)
}

// TestSubmitEvaluation_ScoreDomain verifies 0-4 range enforcement.
func TestSubmitEvaluation_ScoreDomain(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		wantErr error
	}{
		{"below range", -0.1, ErrScoreOutOfRange},
		{"above range", 4.1, ErrScoreOutOfRange},
		{"lower bound", 0, nil},
		{"upper bound", 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := newInstrument()
			err := SubmitEvaluation(inst, "aud-1", deskEval(tt.score), DefaultConflictThreshold)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestSubmitEvaluation_RejectionNote verifies rejected evidence demands
// feedback for the auditee.
func TestSubmitEvaluation_RejectionNote(t *testing.T) {
	inst := newInstrument()
	ev := AuditorEvaluation{EvidenceStatus: EvidenceRejected}

	err := SubmitEvaluation(inst, "aud-1", ev, DefaultConflictThreshold)
	assert.ErrorIs(t, err, ErrRejectionNoteRequired)

	ev.RejectionNote = "bukti tidak sesuai periode audit"
	assert.NoError(t, SubmitEvaluation(inst, "aud-1", ev, DefaultConflictThreshold))
}

// TestConflictDetection covers the boundary cases: desk scores
// 3 and 2 conflict at the 0.5 threshold; 3 and 2.6 do not.
func TestConflictDetection(t *testing.T) {
	t.Run("difference above threshold flags conflict", func(t *testing.T) {
		inst := newInstrument()
		require.NoError(t, SubmitEvaluation(inst, "aud-1", deskEval(3), DefaultConflictThreshold))
		require.NoError(t, SubmitEvaluation(inst, "aud-2", deskEval(2), DefaultConflictThreshold))

		assert.True(t, inst.HasConflict)
		require.NotNil(t, inst.EffectiveScore)
		assert.InDelta(t, 2.5, *inst.EffectiveScore, 1e-9)
	})

	t.Run("difference within threshold is clean", func(t *testing.T) {
		inst := newInstrument()
		require.NoError(t, SubmitEvaluation(inst, "aud-1", deskEval(3), DefaultConflictThreshold))
		require.NoError(t, SubmitEvaluation(inst, "aud-2", deskEval(2.6), DefaultConflictThreshold))

		assert.False(t, inst.HasConflict)
		require.NotNil(t, inst.EffectiveScore)
		assert.InDelta(t, 2.8, *inst.EffectiveScore, 1e-9)
	})

	t.Run("single evaluation has no effective score", func(t *testing.T) {
		inst := newInstrument()
		require.NoError(t, SubmitEvaluation(inst, "aud-1", deskEval(3), DefaultConflictThreshold))

		assert.Nil(t, inst.EffectiveScore)
		assert.False(t, inst.HasConflict)
	})
}

// TestRevision verifies a revised score replaces only the submitting
// auditor's slot and refreshes the derived fields.
func TestRevision(t *testing.T) {
	inst := newInstrument()
	require.NoError(t, SubmitEvaluation(inst, "aud-1", deskEval(3), DefaultConflictThreshold))
	require.NoError(t, SubmitEvaluation(inst, "aud-2", deskEval(2), DefaultConflictThreshold))
	require.True(t, inst.HasConflict)

	// aud-2 revises upward; the conflict clears.
	require.NoError(t, SubmitEvaluation(inst, "aud-2", deskEval(2.8), DefaultConflictThreshold))

	assert.False(t, inst.HasConflict)
	assert.Len(t, inst.Evaluations, 2)
	assert.InDelta(t, 3.0, *inst.Evaluations["aud-1"].DeskScore, 1e-9)
	assert.InDelta(t, 2.8, *inst.Evaluations["aud-2"].DeskScore, 1e-9)
	require.NotNil(t, inst.EffectiveScore)
	assert.InDelta(t, 2.9, *inst.EffectiveScore, 1e-9)
}

// TestIdempotentResubmission verifies an identical resubmission leaves the
// derived fields unchanged.
func TestIdempotentResubmission(t *testing.T) {
	inst := newInstrument()
	require.NoError(t, SubmitEvaluation(inst, "aud-1", deskEval(3), DefaultConflictThreshold))
	require.NoError(t, SubmitEvaluation(inst, "aud-2", deskEval(2), DefaultConflictThreshold))

	before := *inst.EffectiveScore
	conflictBefore := inst.HasConflict

	require.NoError(t, SubmitEvaluation(inst, "aud-1", deskEval(3), DefaultConflictThreshold))

	assert.Equal(t, before, *inst.EffectiveScore)
	assert.Equal(t, conflictBefore, inst.HasConflict)
	assert.Len(t, inst.Evaluations, 2)
}

// TestEffectiveStatus verifies classification of the effective score.
func TestEffectiveStatus(t *testing.T) {
	inst := newInstrument()

	_, ok := EffectiveStatus(inst)
	assert.False(t, ok)

	require.NoError(t, SubmitEvaluation(inst, "aud-1", deskEval(4), DefaultConflictThreshold))
	require.NoError(t, SubmitEvaluation(inst, "aud-2", deskEval(3.6), DefaultConflictThreshold))

	status, ok := EffectiveStatus(inst)
	require.True(t, ok)
	assert.Equal(t, scoring.Compliant, status)
}

// TestFinalScorePrecedence verifies the audit score wins over the desk
// score in aggregate eligibility.
func TestFinalScorePrecedence(t *testing.T) {
	inst := newInstrument()
	desk := 2.0
	audit := 3.0
	inst.FinalDeskScore = &desk

	s, ok := inst.FinalScore()
	require.True(t, ok)
	assert.Equal(t, 2.0, s)

	inst.AuditScore = &audit
	s, _ = inst.FinalScore()
	assert.Equal(t, 3.0, s)
}
