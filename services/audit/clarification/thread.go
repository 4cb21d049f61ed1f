// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package clarification implements the dispute thread attached to a
// contested audit response.
//
// A thread moves open -> responded -> closed. A message from the
// counter-party answers the thread (responded); the opener posting again
// re-raises it (back to open). Closing is an explicit resolution action
// and is terminal. The message sequence is append-only.
package clarification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the thread state.
type Status string

const (
	StatusOpen      Status = "open"
	StatusResponded Status = "responded"
	StatusClosed    Status = "closed"
)

// PartyRole identifies which side of the dispute a participant is on.
type PartyRole string

const (
	RoleAuditee PartyRole = "auditee"
	RoleAuditor PartyRole = "auditor"
)

// Valid reports whether r is a known party role.
func (r PartyRole) Valid() bool {
	return r == RoleAuditee || r == RoleAuditor
}

var (
	// ErrThreadClosed indicates a write against a closed thread.
	ErrThreadClosed = errors.New("clarification thread is closed")

	// ErrInvalidRole indicates an unknown party role.
	ErrInvalidRole = errors.New("invalid party role")

	// ErrEmptyMessage indicates a message with no text.
	ErrEmptyMessage = errors.New("message text must not be empty")
)

// Message is one entry in a thread's append-only conversation.
// Messages are never edited or removed.
type Message struct {
	ID            string    `json:"id"`
	Sender        string    `json:"sender"`
	Role          PartyRole `json:"role"`
	Text          string    `json:"text"`
	AttachmentRef string    `json:"attachment_ref,omitempty"`
	SentAt        time.Time `json:"sent_at"`
}

// Thread is a dispute conversation scoped to one audit response.
type Thread struct {
	ID         string     `json:"id"`
	ResponseID string     `json:"response_id"`
	OpenedBy   PartyRole  `json:"opened_by"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	Messages   []Message  `json:"messages"`
}

// Open creates a thread in the open state with its initial message.
func Open(responseID string, opener PartyRole, sender, text, attachmentRef string) (*Thread, error) {
	if !opener.Valid() {
		return nil, ErrInvalidRole
	}
	if text == "" {
		return nil, ErrEmptyMessage
	}

	now := time.Now().UTC()
	return &Thread{
		ID:         uuid.NewString(),
		ResponseID: responseID,
		OpenedBy:   opener,
		Status:     StatusOpen,
		CreatedAt:  now,
		Messages: []Message{{
			ID:            uuid.NewString(),
			Sender:        sender,
			Role:          opener,
			Text:          text,
			AttachmentRef: attachmentRef,
			SentAt:        now,
		}},
	}, nil
}

// Post appends a message and applies the resulting state transition.
//
// The counter-party answering an open thread moves it to responded; the
// opener posting while responded re-raises it back to open. Same-party
// follow-ups leave the state untouched. Posting to a closed thread fails
// with ErrThreadClosed before anything is written.
func (t *Thread) Post(sender string, role PartyRole, text, attachmentRef string) error {
	if t.Status == StatusClosed {
		return ErrThreadClosed
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	if text == "" {
		return ErrEmptyMessage
	}

	t.Messages = append(t.Messages, Message{
		ID:            uuid.NewString(),
		Sender:        sender,
		Role:          role,
		Text:          text,
		AttachmentRef: attachmentRef,
		SentAt:        time.Now().UTC(),
	})

	switch {
	case role != t.OpenedBy && t.Status == StatusOpen:
		t.Status = StatusResponded
	case role == t.OpenedBy && t.Status == StatusResponded:
		t.Status = StatusOpen
	}
	return nil
}

// Close resolves the thread. Closing is terminal; a second Close fails
// with ErrThreadClosed. Threads are never closed silently.
func (t *Thread) Close() error {
	if t.Status == StatusClosed {
		return ErrThreadClosed
	}
	now := time.Now().UTC()
	t.Status = StatusClosed
	t.ClosedAt = &now
	return nil
}
