package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aller-discovery/internal/contextutil"
)

// captureDefault routes slog.Default() into a buffer for the test.
func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "caller id reused", incoming: "req-123"},
		{name: "id generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureDefault(t)

			var gotID string
			var hadLogger bool
			handler := LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID = contextutil.RequestID(r.Context())
				hadLogger = contextutil.HasLogger(r.Context())
				contextutil.LoggerFromContext(r.Context()).Info("inside")
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.True(t, hadLogger)
			assert.Equal(t, gotID, w.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, gotID)
			} else {
				assert.Len(t, gotID, 36)
			}
			assert.Contains(t, buf.String(), "request_id="+gotID)
			assert.Contains(t, buf.String(), "path=/api/v1/search")
		})
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
	}{
		{name: "search ok", path: "/api/v1/search", status: http.StatusOK, wantLevel: "level=INFO"},
		{name: "bad request", path: "/api/v1/search", status: http.StatusBadRequest, wantLevel: "level=WARN"},
		{name: "upstream failure", path: "/api/v1/search", status: http.StatusBadGateway, wantLevel: "level=ERROR"},
		{name: "healthy check skipped", path: healthPath, status: http.StatusOK},
		{name: "unhealthy check logged", path: healthPath, status: http.StatusServiceUnavailable, wantLevel: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureDefault(t)

			handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.wantLevel == "" {
				assert.Empty(t, buf.String())
				return
			}
			line := buf.String()
			assert.Contains(t, line, tt.wantLevel)
			assert.Contains(t, line, "status="+strconv.Itoa(tt.status))
			assert.Contains(t, line, "bytes=4")
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:3000", wantStatus: http.StatusNoContent, wantOrigin: "http://localhost:3000"},
		{name: "with origin", method: http.MethodPost, origin: "http://localhost:3000", wantStatus: http.StatusOK, wantOrigin: "http://localhost:3000"},
		{name: "without origin", method: http.MethodPost, wantStatus: http.StatusOK, wantOrigin: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/search", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			CORS(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), RequestIDHeader)
			assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
		})
	}
}
