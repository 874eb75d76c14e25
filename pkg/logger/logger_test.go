package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}

	return lines
}

func TestHandler_RequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(NewHandlerWithWriter(buf, nil)).With("component", "test")

	var ctxReqID string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxReqID = middleware.GetReqID(r.Context())
		log.InfoContext(r.Context(), "inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders", nil))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "inside", lines[0]["msg"])
	assert.Equal(t, "test", lines[0]["component"])
	assert.Equal(t, ctxReqID, lines[0][requestIDKey])
}

func TestHandler_DebugFilteredByDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(NewHandlerWithWriter(buf, nil))

	log.Debug("hidden")
	log.Info("shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.NotContains(t, lines[0], requestIDKey)
}

func TestNewLoggerMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(NewHandlerWithWriter(buf, nil))

	h := NewLoggerMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders", nil))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "request completed", lines[0]["msg"])
	assert.Equal(t, http.MethodPost, lines[0]["method"])
	assert.Equal(t, "/orders", lines[0]["path"])
	assert.EqualValues(t, http.StatusCreated, lines[0]["status"])
	assert.EqualValues(t, 4, lines[0]["bytes"])
}
