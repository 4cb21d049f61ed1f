// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package finding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var auditee = Actor{Name: "Admin Prodi TMP", Role: ActorAuditee}
var auditor = Actor{Name: "Dr. Mardison", Role: ActorAuditor}

func newFinding(t *testing.T) *Finding {
	t.Helper()
	f, err := New("Rasio dosen terhadap mahasiswa di bawah standar", RiskHigh, TypeMajor, "TMP", "STD-04", Actor{Name: "UPM", Role: ActorQualityStaff})
	require.NoError(t, err)
	return f
}

func str(s string) *string { return &s }

func outcome(o VerificationOutcome) *VerificationOutcome { return &o }

// TestNew verifies initial state and the creation history entry.
func TestNew(t *testing.T) {
	f := newFinding(t)

	assert.Equal(t, StatusOpen, f.Status)
	assert.Equal(t, OutcomePending, f.Verification)
	require.Len(t, f.History, 1)
	assert.Equal(t, "created finding", f.History[0].Action)
	assert.Equal(t, ActorQualityStaff, f.History[0].Role)
}

// TestNew_Validation rejects malformed inputs.
func TestNew_Validation(t *testing.T) {
	_, err := New("", RiskHigh, TypeMajor, "TMP", "STD-04", auditee)
	assert.ErrorIs(t, err, ErrDescriptionRequired)

	_, err = New("x", RiskLevel("critical"), TypeMajor, "TMP", "STD-04", auditee)
	assert.ErrorIs(t, err, ErrInvalidRiskLevel)

	_, err = New("x", RiskHigh, Type("blocker"), "TMP", "STD-04", auditee)
	assert.ErrorIs(t, err, ErrInvalidType)
}

// TestApply_RemediationStartsAction verifies the open -> action-in-progress
// transition on the first remediation field, and that it never skips ahead.
func TestApply_RemediationStartsAction(t *testing.T) {
	tests := []struct {
		name   string
		update Update
	}{
		{"remediation plan", Update{RemediationPlan: str("Rekrut dua dosen tetap")}},
		{"target date", Update{TargetDate: timePtr(time.Now().AddDate(0, 3, 0))}},
		{"remediation evidence", Update{RemediationEvidenceRef: str("doc-41")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFinding(t)
			require.NoError(t, f.Apply(tt.update, auditee))
			assert.Equal(t, StatusActionInProgress, f.Status)
		})
	}
}

// TestApply_NoRegression verifies re-setting remediation fields past open
// does not move the state backwards.
func TestApply_NoRegression(t *testing.T) {
	f := newFinding(t)
	require.NoError(t, f.Apply(Update{RemediationPlan: str("v1")}, auditee))
	require.NoError(t, f.Apply(Update{Verification: outcome(OutcomeRejected)}, auditor))
	require.Equal(t, StatusActionInProgress, f.Status)

	require.NoError(t, f.Apply(Update{RemediationPlan: str("v2")}, auditee))
	assert.Equal(t, StatusActionInProgress, f.Status)
}

// TestApply_Verification covers both verification outcomes.
func TestApply_Verification(t *testing.T) {
	t.Run("rejected outcome keeps action in progress", func(t *testing.T) {
		f := newFinding(t)
		require.NoError(t, f.Apply(Update{RemediationPlan: str("plan")}, auditee))

		require.NoError(t, f.Apply(Update{Verification: outcome(OutcomeRejected)}, auditor))
		assert.Equal(t, StatusActionInProgress, f.Status)
		assert.Equal(t, OutcomeRejected, f.Verification)
	})

	t.Run("confirmed outcome closes", func(t *testing.T) {
		f := newFinding(t)
		require.NoError(t, f.Apply(Update{RemediationPlan: str("plan")}, auditee))

		require.NoError(t, f.Apply(Update{Verification: outcome(OutcomeConfirmed)}, auditor))
		assert.Equal(t, StatusClosed, f.Status)
	})

	t.Run("verification before action is illegal", func(t *testing.T) {
		f := newFinding(t)
		err := f.Apply(Update{Verification: outcome(OutcomeConfirmed)}, auditor)
		assert.ErrorIs(t, err, ErrVerificationBeforeAction)
		assert.Equal(t, StatusOpen, f.Status, "failed guard must not mutate")
	})

	t.Run("unknown outcome rejected", func(t *testing.T) {
		f := newFinding(t)
		require.NoError(t, f.Apply(Update{RemediationPlan: str("plan")}, auditee))
		bad := VerificationOutcome("Mungkin")
		assert.ErrorIs(t, f.Apply(Update{Verification: &bad}, auditor), ErrInvalidOutcome)
	})
}

// TestApply_ClosedIsTerminal verifies no mutation touches a closed finding.
func TestApply_ClosedIsTerminal(t *testing.T) {
	f := newFinding(t)
	require.NoError(t, f.Apply(Update{RemediationPlan: str("plan")}, auditee))
	require.NoError(t, f.Apply(Update{Verification: outcome(OutcomeConfirmed)}, auditor))
	require.Equal(t, StatusClosed, f.Status)

	historyLen := len(f.History)
	err := f.Apply(Update{Description: str("late edit")}, auditee)
	assert.ErrorIs(t, err, ErrFindingClosed)
	assert.Len(t, f.History, historyLen)
}

// TestApply_History verifies one prepended entry per mutation with a
// descriptive action.
func TestApply_History(t *testing.T) {
	f := newFinding(t)

	require.NoError(t, f.Apply(Update{RemediationEvidenceRef: str("doc-41")}, auditee))
	require.NoError(t, f.Apply(Update{Verification: outcome(OutcomeRejected), VerificationRemark: str("bukti kurang")}, auditor))
	require.NoError(t, f.Apply(Update{RootCause: str("beban mengajar tidak merata")}, auditee))

	require.Len(t, f.History, 4, "creation plus three mutations")

	// Most recent first.
	assert.Equal(t, "updated fields: root_cause", f.History[0].Action)
	assert.Equal(t, "recorded verification: Belum Sesuai", f.History[1].Action)
	assert.Equal(t, "uploaded remediation evidence: doc-41", f.History[2].Action)
	assert.Equal(t, "created finding", f.History[3].Action)
}

// TestApply_EmptyUpdate rejects updates with nothing to do.
func TestApply_EmptyUpdate(t *testing.T) {
	f := newFinding(t)
	assert.ErrorIs(t, f.Apply(Update{}, auditee), ErrNoFields)
}

func timePtr(t time.Time) *time.Time { return &t }
