package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusServiceUnavailable, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/vitals", nil))

		out := buf.String()
		if !strings.Contains(out, tt.level) {
			t.Errorf("status %d: log %q missing %s", tt.status, out, tt.level)
		}
		if !strings.Contains(out, "path=/api/v1/vitals") {
			t.Errorf("log %q missing path", out)
		}
	}
}
