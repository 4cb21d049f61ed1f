// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/analysis"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/clarification"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/directory"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/evaluation"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/finding"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/storage"
)

type stubAnalyzer struct {
	suggestion analysis.Suggestion
	err        error
}

func (s stubAnalyzer) SuggestRemediation(context.Context, string) (analysis.Suggestion, error) {
	return s.suggestion, s.err
}

func newTestRouter(t *testing.T, analyzer analysis.Analyzer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	units := directory.NewStaticResolver([]directory.Unit{
		{Code: "FTI", Name: "Fakultas Teknologi Industri"},
	})
	svc := NewService(store, analyzer, units, nil, DefaultServiceConfig())

	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createInstrument(t *testing.T, router *gin.Engine) evaluation.Instrument {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/v1/audit/instruments", CreateInstrumentRequest{
		StandardCode: "STD-7.1",
		UnitCode:     "FTI",
		Question:     "Is the curriculum reviewed annually?",
		AuditorIDs:   [2]string{"aud-1", "aud-2"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[evaluation.Instrument](t, w)
}

func submitScore(t *testing.T, router *gin.Engine, instrumentID, auditorID string, score float64) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, router, http.MethodPost, "/v1/audit/instruments/"+instrumentID+"/evaluations",
		SubmitEvaluationRequest{
			AuditorID:      auditorID,
			EvidenceStatus: evaluation.EvidenceApproved,
			DeskScore:      &score,
		})
}

func TestCreateAndGetInstrument(t *testing.T) {
	router := newTestRouter(t, nil)

	inst := createInstrument(t, router)
	assert.NotEmpty(t, inst.ID)
	assert.Equal(t, [2]string{"aud-1", "aud-2"}, inst.AuditorIDs)

	w := doJSON(t, router, http.MethodGet, "/v1/audit/instruments/"+inst.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[InstrumentResponse](t, w)
	assert.Equal(t, inst.ID, resp.Instrument.ID)
	assert.Empty(t, resp.EffectiveStatus)
}

func TestCreateInstrumentRejectsBadPair(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/audit/instruments", CreateInstrumentRequest{
		StandardCode: "STD-7.1",
		UnitCode:     "FTI",
		Question:     "q",
		AuditorIDs:   [2]string{"aud-1", "aud-1"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeUnassignedAuditor, decode[ErrorResponse](t, w).Code)
}

func TestGetInstrumentNotFound(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/v1/audit/instruments/absent", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, w).Code)
}

func TestSubmitEvaluationConflictFlow(t *testing.T) {
	router := newTestRouter(t, nil)
	inst := createInstrument(t, router)

	w := submitScore(t, router, inst.ID, "aud-1", 3)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[evaluation.Instrument](t, w)
	assert.Nil(t, first.EffectiveScore)
	assert.False(t, first.HasConflict)

	w = submitScore(t, router, inst.ID, "aud-2", 2)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[evaluation.Instrument](t, w)
	require.NotNil(t, second.EffectiveScore)
	assert.InDelta(t, 2.5, *second.EffectiveScore, 1e-9)
	assert.True(t, second.HasConflict)

	// Revision narrows the gap and clears the flag.
	w = submitScore(t, router, inst.ID, "aud-2", 2.6)
	require.Equal(t, http.StatusOK, w.Code)
	revised := decode[evaluation.Instrument](t, w)
	assert.False(t, revised.HasConflict)
	assert.InDelta(t, 2.8, *revised.EffectiveScore, 1e-9)
}

func TestSubmitEvaluationRejections(t *testing.T) {
	router := newTestRouter(t, nil)
	inst := createInstrument(t, router)

	t.Run("unassigned auditor", func(t *testing.T) {
		w := submitScore(t, router, inst.ID, "aud-3", 3)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, CodeUnassignedAuditor, decode[ErrorResponse](t, w).Code)
	})

	t.Run("score out of range", func(t *testing.T) {
		w := submitScore(t, router, inst.ID, "aud-1", 4.5)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, CodeScoreOutOfRange, decode[ErrorResponse](t, w).Code)
	})

	t.Run("unknown instrument", func(t *testing.T) {
		w := submitScore(t, router, "absent", "aud-1", 3)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/audit/instruments/"+inst.ID+"/evaluations", gin.H{})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeInvalidRequest, decode[ErrorResponse](t, w).Code)
	})
}

func TestClarificationLifecycle(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/audit/clarifications", OpenClarificationRequest{
		ResponseID: "resp-1",
		OpenerRole: clarification.RoleAuditee,
		Sender:     "unit staff",
		Text:       "The evidence was uploaded before the deadline.",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	thread := decode[clarification.Thread](t, w)
	assert.Equal(t, clarification.StatusOpen, thread.Status)

	w = doJSON(t, router, http.MethodPost, "/v1/audit/clarifications/"+thread.ID+"/messages", PostMessageRequest{
		Sender: "auditor one",
		Role:   clarification.RoleAuditor,
		Text:   "Acknowledged, re-checking the timestamps.",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, clarification.StatusResponded, decode[clarification.Thread](t, w).Status)

	w = doJSON(t, router, http.MethodPost, "/v1/audit/clarifications/"+thread.ID+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	closed := decode[clarification.Thread](t, w)
	assert.Equal(t, clarification.StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	t.Run("post after close", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/audit/clarifications/"+thread.ID+"/messages", PostMessageRequest{
			Sender: "unit staff",
			Role:   clarification.RoleAuditee,
			Text:   "One more thing.",
		})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeThreadClosed, decode[ErrorResponse](t, w).Code)
	})

	t.Run("double close", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/audit/clarifications/"+thread.ID+"/close", nil)
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeThreadClosed, decode[ErrorResponse](t, w).Code)
	})
}

func createFinding(t *testing.T, router *gin.Engine) CreateFindingResponse {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/v1/audit/findings", CreateFindingRequest{
		Description:  "No record of the annual curriculum review.",
		RiskLevel:    finding.RiskHigh,
		Type:         finding.TypeMajor,
		UnitCode:     "FTI",
		StandardCode: "STD-7.1",
		Actor:        ActorPayload{Name: "auditor one", Role: finding.ActorAuditor},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[CreateFindingResponse](t, w)
}

func TestCreateFindingWithSuggestion(t *testing.T) {
	router := newTestRouter(t, stubAnalyzer{
		suggestion: analysis.Suggestion{
			RootCause:        "No review calendar ownership.",
			CorrectiveAction: "Assign a review coordinator and schedule.",
		},
	})

	resp := createFinding(t, router)
	assert.True(t, resp.SuggestionAvailable)
	assert.Equal(t, "No review calendar ownership.", resp.Finding.RootCause)
	assert.Equal(t, finding.StatusOpen, resp.Finding.Status)
	require.Len(t, resp.Finding.History, 1)
}

func TestCreateFindingAnalyzerFailureDoesNotBlock(t *testing.T) {
	router := newTestRouter(t, stubAnalyzer{err: analysis.ErrUnavailable})

	resp := createFinding(t, router)
	assert.False(t, resp.SuggestionAvailable)
	assert.Empty(t, resp.Finding.RootCause)
	assert.Equal(t, finding.StatusOpen, resp.Finding.Status)
}

func TestFindingLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t, nil)
	created := createFinding(t, router)
	id := created.Finding.ID
	actor := ActorPayload{Name: "unit staff", Role: finding.ActorAuditee}

	t.Run("verification before action", func(t *testing.T) {
		outcome := finding.OutcomeConfirmed
		w := doJSON(t, router, http.MethodPatch, "/v1/audit/findings/"+id, UpdateFindingRequest{
			Update: finding.Update{Verification: &outcome},
			Actor:  ActorPayload{Name: "auditor one", Role: finding.ActorAuditor},
		})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeIllegalTransition, decode[ErrorResponse](t, w).Code)
	})

	plan := "Establish the review calendar."
	w := doJSON(t, router, http.MethodPatch, "/v1/audit/findings/"+id, UpdateFindingRequest{
		Update: finding.Update{RemediationPlan: &plan},
		Actor:  actor,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, finding.StatusActionInProgress, decode[finding.Finding](t, w).Status)

	outcome := finding.OutcomeConfirmed
	w = doJSON(t, router, http.MethodPatch, "/v1/audit/findings/"+id, UpdateFindingRequest{
		Update: finding.Update{Verification: &outcome},
		Actor:  ActorPayload{Name: "auditor one", Role: finding.ActorAuditor},
	})
	require.Equal(t, http.StatusOK, w.Code)
	closed := decode[finding.Finding](t, w)
	assert.Equal(t, finding.StatusClosed, closed.Status)

	t.Run("closed is terminal", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, "/v1/audit/findings/"+id, UpdateFindingRequest{
			Update: finding.Update{RemediationPlan: &plan},
			Actor:  actor,
		})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeIllegalTransition, decode[ErrorResponse](t, w).Code)
	})

	t.Run("get returns history", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/audit/findings/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[finding.Finding](t, w)
		// creation, remediation plan, verification
		assert.Len(t, got.History, 3)
	})

	t.Run("list includes finding", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/audit/findings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]finding.Finding](t, w), 1)
	})
}

func TestCycleArchiveAndTrend(t *testing.T) {
	router := newTestRouter(t, nil)
	inst := createInstrument(t, router)

	require.Equal(t, http.StatusOK, submitScore(t, router, inst.ID, "aud-1", 3).Code)
	require.Equal(t, http.StatusOK, submitScore(t, router, inst.ID, "aud-2", 2).Code)

	w := doJSON(t, router, http.MethodPost, "/v1/audit/cycles", CreateCycleRequest{Name: "2025-even"})
	require.Equal(t, http.StatusCreated, w.Code)
	cycle := decode[CycleResponse](t, w)
	assert.Equal(t, "2025-even", cycle.Name)
	assert.Equal(t, 1, cycle.InstrumentCount)

	t.Run("cycle name is write-once", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/audit/cycles", CreateCycleRequest{Name: "2025-even"})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeIllegalTransition, decode[ErrorResponse](t, w).Code)
	})

	w = doJSON(t, router, http.MethodGet, "/v1/audit/trends/aud-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	trendResp := decode[TrendResponse](t, w)
	assert.Equal(t, "aud-1", trendResp.AuditorID)
	require.Len(t, trendResp.Cycles, 1)
	assert.Equal(t, "2025-even", trendResp.Cycles[0].Cycle)
	assert.InDelta(t, 3.0, trendResp.Cycles[0].AuditorMean, 1e-9)
	assert.InDelta(t, 2.0, trendResp.Cycles[0].PeerMean, 1e-9)
	assert.True(t, trendResp.Cycles[0].Divergent)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/v1/audit/health", "/v1/audit/ready"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "audit", decode[HealthResponse](t, w).Service)
	}
}
