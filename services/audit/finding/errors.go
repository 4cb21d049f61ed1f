// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package finding

import "errors"

// Sentinel errors for the finding lifecycle.
var (
	// ErrFindingClosed indicates a mutation against a finding already in
	// its terminal state.
	ErrFindingClosed = errors.New("finding is closed")

	// ErrVerificationBeforeAction indicates a verification decision on a
	// finding that has no corrective action in progress yet.
	ErrVerificationBeforeAction = errors.New("cannot verify a finding with no corrective action in progress")

	// ErrNoFields indicates an update carrying nothing to apply.
	ErrNoFields = errors.New("update contains no fields")

	// ErrDescriptionRequired indicates a finding without a description.
	ErrDescriptionRequired = errors.New("finding description is required")

	// ErrInvalidRiskLevel indicates an unknown risk level value.
	ErrInvalidRiskLevel = errors.New("invalid risk level")

	// ErrInvalidType indicates an unknown finding type value.
	ErrInvalidType = errors.New("invalid finding type")

	// ErrInvalidOutcome indicates an unknown verification outcome value.
	ErrInvalidOutcome = errors.New("invalid verification outcome")

	// ErrInvalidActorRole indicates an unknown actor role.
	ErrInvalidActorRole = errors.New("invalid actor role")
)
