// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package audit

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all audit core routes with the router.
//
// Description:
//
//	Registers all /v1/audit/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Instrument Endpoints:
//
//	POST /v1/audit/instruments - Seed a checklist instrument
//	GET  /v1/audit/instruments/:id - Get an instrument with derived fields
//	POST /v1/audit/instruments/:id/evaluations - Submit an auditor evaluation
//
// Clarification Endpoints:
//
//	POST /v1/audit/clarifications - Open a dispute thread
//	GET  /v1/audit/clarifications/:id - Get a thread
//	POST /v1/audit/clarifications/:id/messages - Post a message
//	POST /v1/audit/clarifications/:id/close - Close a thread
//
// Finding Endpoints:
//
//	POST /v1/audit/findings - Record a nonconformity
//	GET  /v1/audit/findings - List findings
//	GET  /v1/audit/findings/:id - Get a finding
//	PATCH /v1/audit/findings/:id - Apply a partial lifecycle update
//
// Trend and Cycle Endpoints:
//
//	GET  /v1/audit/trends/:auditorId - Per-cycle consistency summaries
//	POST /v1/audit/cycles - Archive the current instrument set
//
// Health Endpoints:
//
//	GET  /v1/audit/health - Health check
//	GET  /v1/audit/ready - Readiness check
//
// Example:
//
//	svc := audit.NewService(store, analyzer, units, metrics, audit.DefaultServiceConfig())
//	handlers := audit.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	audit.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	audit := rg.Group("/audit")
	{
		// Instruments and evaluations
		audit.POST("/instruments", handlers.HandleCreateInstrument)
		audit.GET("/instruments/:id", handlers.HandleGetInstrument)
		audit.POST("/instruments/:id/evaluations", handlers.HandleSubmitEvaluation)

		// Clarification threads
		audit.POST("/clarifications", handlers.HandleOpenClarification)
		audit.GET("/clarifications/:id", handlers.HandleGetClarification)
		audit.POST("/clarifications/:id/messages", handlers.HandlePostClarificationMessage)
		audit.POST("/clarifications/:id/close", handlers.HandleCloseClarification)

		// Findings
		audit.POST("/findings", handlers.HandleCreateFinding)
		audit.GET("/findings", handlers.HandleListFindings)
		audit.GET("/findings/:id", handlers.HandleGetFinding)
		audit.PATCH("/findings/:id", handlers.HandleUpdateFinding)

		// Trends and cycle archival
		audit.GET("/trends/:auditorId", handlers.HandleTrend)
		audit.POST("/cycles", handlers.HandleCloseCycle)

		// Health checks
		audit.GET("/health", handlers.HandleHealth)
		audit.GET("/ready", handlers.HandleReady)
	}
}
