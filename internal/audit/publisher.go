package audit

import (
	"context"
	"log/slog"
	"time"
)

// LogPublisher writes audit events to the structured log. It is the default
// sink when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher over the given logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Emit writes the event as a single log record tagged log_type=audit.
func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.logger.InfoContext(ctx, string(event.Action),
		"log_type", "audit",
		"subject", event.Subject,
		"detail", event.Detail,
		"client_ip", event.ClientIP,
		"device", event.Device,
	)
	return nil
}
