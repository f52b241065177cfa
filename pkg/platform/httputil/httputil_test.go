package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "vocalmind/pkg/domain-errors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "abc", body["id"])
}

func TestWriteError(t *testing.T) {
	t.Run("domain error carries code and description", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.New(dErrors.CodeConflict, "email already registered"))

		require.Equal(t, http.StatusConflict, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "conflict", body["error"])
		require.Equal(t, "email already registered", body["error_description"])
	})

	t.Run("internal error hides the description", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "query users"))

		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "internal_error", body["error"])
		require.NotContains(t, body, "error_description")
		require.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("foreign error maps to internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("boom"))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "boom")
	})
}
