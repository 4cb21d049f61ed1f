// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package audit

import (
	"errors"
	"net/http"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/clarification"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/evaluation"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/finding"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/storage"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeUnassignedAuditor = "UNASSIGNED_AUDITOR"
	CodeScoreOutOfRange   = "SCORE_OUT_OF_RANGE"
	CodeThreadClosed      = "THREAD_CLOSED"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInternal          = "INTERNAL"
)

// statusCodeFor maps a service error to its HTTP status and error code.
//
// Validation failures are 400, domain rejections of a well-formed request
// are 422, state-machine violations are 409, and anything unrecognized is
// a 500 INTERNAL.
func statusCodeFor(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound

	case errors.Is(err, evaluation.ErrUnassignedAuditor),
		errors.Is(err, evaluation.ErrAuditorPairRequired):
		return http.StatusUnprocessableEntity, CodeUnassignedAuditor

	case errors.Is(err, evaluation.ErrScoreOutOfRange):
		return http.StatusUnprocessableEntity, CodeScoreOutOfRange

	case errors.Is(err, clarification.ErrThreadClosed):
		return http.StatusConflict, CodeThreadClosed

	case errors.Is(err, finding.ErrFindingClosed),
		errors.Is(err, finding.ErrVerificationBeforeAction),
		errors.Is(err, storage.ErrCycleFrozen):
		return http.StatusConflict, CodeIllegalTransition

	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict, CodeAlreadyExists

	case errors.Is(err, evaluation.ErrInvalidEvidenceStatus),
		errors.Is(err, evaluation.ErrRejectionNoteRequired),
		errors.Is(err, clarification.ErrInvalidRole),
		errors.Is(err, clarification.ErrEmptyMessage),
		errors.Is(err, finding.ErrNoFields),
		errors.Is(err, finding.ErrDescriptionRequired),
		errors.Is(err, finding.ErrInvalidRiskLevel),
		errors.Is(err, finding.ErrInvalidType),
		errors.Is(err, finding.ErrInvalidOutcome),
		errors.Is(err, finding.ErrInvalidActorRole):
		return http.StatusBadRequest, CodeInvalidRequest
	}

	return http.StatusInternalServerError, CodeInternal
}
