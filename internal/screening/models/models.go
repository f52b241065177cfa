// Package models defines the screening-session domain types.
package models

import "time"

// Status tracks a screening session through its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// IsValid checks that the status is one of the supported values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted:
		return true
	}
	return false
}

// Session is one voice screening run for a user. Audio itself never touches
// this service; only bookkeeping lives here.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Status          Status     `json:"status"`
	Language        string     `json:"language"`
	DurationSeconds int        `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// CreateSessionRequest is the payload for POST /api/screenings.
type CreateSessionRequest struct {
	Language        string `json:"language"`
	DurationSeconds int    `json:"duration_seconds"`
}
