// Package audit captures the append-only trail of security-relevant actions:
// the request log, account lifecycle events and rejected inputs. Emission is
// best effort everywhere; an audit failure never fails the request that
// produced it.
package audit

import (
	"context"
	"time"
)

// Action names an audited event.
type Action string

const (
	ActionRequest            Action = "request"
	ActionUserRegistered     Action = "user_registered"
	ActionLogin              Action = "login"
	ActionLoginFailed        Action = "login_failed"
	ActionPasswordResetAsked Action = "password_reset_requested"
	ActionPasswordReset      Action = "password_reset"
	ActionMaliciousInput     Action = "malicious_input_rejected"
	ActionScreeningCreated   Action = "screening_created"
	ActionScreeningCompleted Action = "screening_completed"
)

// Event is a single audit trail entry. Keep it transport-agnostic so sinks
// can fan out (structured log, Kafka).
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Subject   string    `json:"subject,omitempty"` // user ID or client identity
	Detail    string    `json:"detail,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Device    string    `json:"device,omitempty"`
}

// Publisher emits audit events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
