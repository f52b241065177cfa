package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogPublisherEmit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	pub := NewLogPublisher(logger)

	err := pub.Emit(context.Background(), Event{
		Action:   ActionLoginFailed,
		Subject:  "203.0.113.5",
		Detail:   "asha@example.com",
		ClientIP: "203.0.113.5",
		Device:   "Chrome/Windows",
	})
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "login_failed", record["msg"])
	require.Equal(t, "audit", record["log_type"])
	require.Equal(t, "203.0.113.5", record["subject"])
	require.Equal(t, "asha@example.com", record["detail"])
	require.Equal(t, "Chrome/Windows", record["device"])
}
