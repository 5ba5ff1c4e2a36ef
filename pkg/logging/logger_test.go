package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSlogLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(WithOutput(&buf), WithJSON(), WithLevel(slog.LevelDebug))

	logger.With(String("wizard", "w1")).Debug("advanced", Int("step", 2))

	out := buf.String()
	assert.Contains(t, out, `"msg":"advanced"`)
	assert.Contains(t, out, `"wizard":"w1"`)
	assert.Contains(t, out, `"step":2`)
}

func TestSlogLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(WithOutput(&buf), WithLevel(slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestL_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultLogger, L(context.Background()))

	ctx := ContextWithLogger(context.Background(), NopLogger{})
	assert.Equal(t, NopLogger{}, L(ctx))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(WithOutput(&buf), WithLevel(slog.LevelDebug))

	var inner Logger
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = L(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/step", nil)
	req.Header.Set("X-Request-ID", "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, inner)
	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "status=418")
}

func TestDomainFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(WithOutput(&buf), WithJSON())

	logger.Info("event", Session("s-1"), Step(2), Err(assert.AnError))

	out := buf.String()
	assert.Contains(t, out, `"session":"s-1"`)
	assert.Contains(t, out, `"step":2`)
	assert.Contains(t, out, `"error":"`+assert.AnError.Error()+`"`)
}
