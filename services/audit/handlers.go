// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package audit

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/evaluation"
)

// ServiceVersion is the audit service version.
const ServiceVersion = "0.1.0"

// Handlers contains the HTTP handlers for the audit core.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleCreateInstrument handles POST /v1/audit/instruments.
//
// Response:
//
//	201 Created: evaluation.Instrument
//	400 Bad Request: Validation error
//	409 Conflict: Duplicate instrument id
//	422 Unprocessable Entity: Invalid auditor pair
func (h *Handlers) HandleCreateInstrument(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateInstrument")

	var req CreateInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	inst, err := h.svc.CreateInstrument(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, "Instrument creation failed", err)
		return
	}

	logger.Info("Instrument created",
		"instrument_id", inst.ID,
		"standard_code", inst.StandardCode,
		"unit_code", inst.UnitCode)
	c.JSON(http.StatusCreated, inst)
}

// HandleGetInstrument handles GET /v1/audit/instruments/:id.
//
// Response:
//
//	200 OK: InstrumentResponse
//	404 Not Found: Unknown instrument
func (h *Handlers) HandleGetInstrument(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetInstrument")

	inst, err := h.svc.GetInstrument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, "Instrument lookup failed", err)
		return
	}

	resp := InstrumentResponse{Instrument: *inst}
	if status, ok := evaluation.EffectiveStatus(inst); ok {
		resp.EffectiveStatus = string(status)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSubmitEvaluation handles POST /v1/audit/instruments/:id/evaluations.
//
// Description:
//
//	Records one auditor's evaluation and returns the instrument with its
//	refreshed derived fields. Resubmission by the same auditor overwrites
//	only that auditor's slot.
//
// Response:
//
//	200 OK: evaluation.Instrument
//	400 Bad Request: Validation error
//	404 Not Found: Unknown instrument
//	422 Unprocessable Entity: Unassigned auditor or score out of range
func (h *Handlers) HandleSubmitEvaluation(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSubmitEvaluation")

	var req SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	instrumentID := c.Param("id")
	logger.Info("Submitting evaluation",
		"instrument_id", instrumentID,
		"auditor_id", req.AuditorID)

	inst, err := h.svc.SubmitEvaluation(c.Request.Context(), instrumentID, req)
	if err != nil {
		respondError(c, logger, "Evaluation rejected", err)
		return
	}

	c.JSON(http.StatusOK, inst)
}

// HandleOpenClarification handles POST /v1/audit/clarifications.
//
// Response:
//
//	201 Created: clarification.Thread
//	400 Bad Request: Validation error
func (h *Handlers) HandleOpenClarification(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleOpenClarification")

	var req OpenClarificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	t, err := h.svc.OpenClarification(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, "Thread open failed", err)
		return
	}

	logger.Info("Clarification thread opened",
		"thread_id", t.ID,
		"response_id", t.ResponseID)
	c.JSON(http.StatusCreated, t)
}

// HandleGetClarification handles GET /v1/audit/clarifications/:id.
func (h *Handlers) HandleGetClarification(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetClarification")

	t, err := h.svc.GetClarification(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, "Thread lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// HandlePostClarificationMessage handles POST /v1/audit/clarifications/:id/messages.
//
// Response:
//
//	200 OK: clarification.Thread
//	404 Not Found: Unknown thread
//	409 Conflict: Thread already closed
func (h *Handlers) HandlePostClarificationMessage(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandlePostClarificationMessage")

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	t, err := h.svc.PostClarificationMessage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, "Message rejected", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// HandleCloseClarification handles POST /v1/audit/clarifications/:id/close.
//
// Response:
//
//	200 OK: clarification.Thread
//	404 Not Found: Unknown thread
//	409 Conflict: Thread already closed
func (h *Handlers) HandleCloseClarification(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCloseClarification")

	t, err := h.svc.CloseClarification(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, "Thread close rejected", err)
		return
	}

	logger.Info("Clarification thread closed", "thread_id", t.ID)
	c.JSON(http.StatusOK, t)
}

// HandleCreateFinding handles POST /v1/audit/findings.
//
// Description:
//
//	Records a nonconformity. The analysis service is consulted for a
//	root-cause and corrective-action suggestion; its failure never blocks
//	the save and is reported via suggestion_available.
//
// Response:
//
//	201 Created: CreateFindingResponse
//	400 Bad Request: Validation error
func (h *Handlers) HandleCreateFinding(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateFinding")

	var req CreateFindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	f, suggested, err := h.svc.CreateFinding(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, "Finding creation failed", err)
		return
	}

	logger.Info("Finding created",
		"finding_id", f.ID,
		"risk_level", f.RiskLevel,
		"suggestion_available", suggested)
	c.JSON(http.StatusCreated, CreateFindingResponse{
		Finding:             *f,
		SuggestionAvailable: suggested,
	})
}

// HandleGetFinding handles GET /v1/audit/findings/:id.
func (h *Handlers) HandleGetFinding(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetFinding")

	f, err := h.svc.GetFinding(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, "Finding lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// HandleListFindings handles GET /v1/audit/findings.
func (h *Handlers) HandleListFindings(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleListFindings")

	findings, err := h.svc.ListFindings(c.Request.Context())
	if err != nil {
		respondError(c, logger, "Finding list failed", err)
		return
	}
	c.JSON(http.StatusOK, findings)
}

// HandleUpdateFinding handles PATCH /v1/audit/findings/:id.
//
// Description:
//
//	Applies a partial mutation under the lifecycle rules. Status is never
//	accepted from the caller; it is derived from the fields touched.
//
// Response:
//
//	200 OK: finding.Finding
//	400 Bad Request: Validation error or empty update
//	404 Not Found: Unknown finding
//	409 Conflict: Finding closed or verification before action
func (h *Handlers) HandleUpdateFinding(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleUpdateFinding")

	var req UpdateFindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	f, err := h.svc.UpdateFinding(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, "Finding update rejected", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// HandleTrend handles GET /v1/audit/trends/:auditorId.
//
// Response:
//
//	200 OK: TrendResponse
func (h *Handlers) HandleTrend(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleTrend")

	auditorID := c.Param("auditorId")
	summaries, err := h.svc.Trend(c.Request.Context(), auditorID)
	if err != nil {
		respondError(c, logger, "Trend analysis failed", err)
		return
	}

	c.JSON(http.StatusOK, TrendResponse{
		AuditorID: auditorID,
		Cycles:    summaries,
	})
}

// HandleCloseCycle handles POST /v1/audit/cycles.
//
// Response:
//
//	201 Created: CycleResponse
//	409 Conflict: Cycle name already archived
func (h *Handlers) HandleCloseCycle(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCloseCycle")

	var req CreateCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	cycle, err := h.svc.CloseCycle(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, logger, "Cycle close rejected", err)
		return
	}

	c.JSON(http.StatusCreated, CycleResponse{
		Name:            cycle.Name,
		ClosedAt:        cycle.ClosedAt,
		InstrumentCount: len(cycle.Instruments),
	})
}

// HandleHealth handles GET /v1/audit/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "audit",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/audit/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ready",
		Service: "audit",
		Version: ServiceVersion,
	})
}

// respondError writes the mapped status and error payload. Server faults
// log at error level, domain rejections at warn.
func respondError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status, code := statusCodeFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err)
	} else {
		logger.Warn(msg, "error", err)
	}
	c.JSON(status, ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

// getOrCreateRequestID returns the request id from the X-Request-ID
// header, generating one when absent, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
