// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package evaluation

import "errors"

// Sentinel errors for the evaluation boundary.
var (
	// ErrUnassignedAuditor indicates the submitting auditor is not a
	// member of the instrument's assigned pair.
	ErrUnassignedAuditor = errors.New("auditor is not assigned to this instrument")

	// ErrAuditorPairRequired indicates the instrument has no assigned
	// auditor pair yet, so no evaluation can be accepted.
	ErrAuditorPairRequired = errors.New("instrument has no assigned auditor pair")

	// ErrScoreOutOfRange indicates a score outside the 0-4 scale.
	ErrScoreOutOfRange = errors.New("score outside the 0-4 scale")

	// ErrInvalidEvidenceStatus indicates an unknown evidence status value.
	ErrInvalidEvidenceStatus = errors.New("invalid evidence status")

	// ErrRejectionNoteRequired indicates a rejected evidence review was
	// submitted without feedback for the auditee.
	ErrRejectionNoteRequired = errors.New("rejecting evidence requires a rejection note")
)
