package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Dev server requests arrive directly or through a local proxy; the client
// address ends up in the request log either way.
func TestRequestLogger_clientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:     "forwarded single",
			headers:  map[string]string{"X-Forwarded-For": "192.168.1.1"},
			expected: "192.168.1.1",
		},
		{
			name:     "forwarded chain takes first",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.1,198.51.100.1"},
			expected: "203.0.113.1",
		},
		{
			name:     "forwarded wins over real ip",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.1, 198.51.100.1", "X-Real-IP": "192.168.1.100"},
			expected: "203.0.113.1",
		},
		{
			name:     "real ip",
			headers:  map[string]string{"X-Real-IP": "192.168.1.100"},
			expected: "192.168.1.100",
		},
		{
			name:       "loopback with port",
			remoteAddr: "127.0.0.1:54321",
			expected:   "127.0.0.1",
		},
		{
			name:       "IPv6 loopback with port",
			remoteAddr: "[::1]:54321",
			expected:   "[::1]",
		},
		{
			name:       "no port",
			remoteAddr: "127.0.0.1",
			expected:   "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := RequestLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("ok"))
			}))

			r := httptest.NewRequest(http.MethodGet, "/index.html", nil)
			if tt.remoteAddr != "" {
				r.RemoteAddr = tt.remoteAddr
			}
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			require.Equal(t, tt.expected, ExtractClientIP(r))

			handler.ServeHTTP(httptest.NewRecorder(), r)
			require.Contains(t, buf.String(), `"client_ip":"`+tt.expected+`"`)
		})
	}
}

func TestClientIPMiddleware(t *testing.T) {
	middleware := ClientIPMiddleware()

	var capturedIP string
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedIP = ClientIPFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.1")

	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "203.0.113.1", capturedIP)
}

func TestClientIPFromContext_missing(t *testing.T) {
	ctx := context.Background()

	ip := ClientIPFromContext(ctx)
	require.Empty(t, ip)
}

func TestHeadersMiddleware(t *testing.T) {
	middleware := HeadersMiddleware(map[string]string{
		"cross-origin-opener-policy":   "same-origin",
		"Cross-Origin-Embedder-Policy": "require-corp",
	})

	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("ok"))
			},
			status: http.StatusOK,
		},
		{
			name:    "not found",
			handler: http.NotFound,
			status:  http.StatusNotFound,
		},
		{
			name: "error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			middleware(tt.handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, tt.status, w.Code)
			require.Equal(t, "same-origin", w.Header().Get("Cross-Origin-Opener-Policy"))
			require.Equal(t, "require-corp", w.Header().Get("Cross-Origin-Embedder-Policy"))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	var requestID, clientIP string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = RequestIDFromContext(r.Context())
		clientIP = ClientIPFromContext(r.Context())
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/js/index.js", nil)
	r.Header.Set("X-Real-IP", "192.168.1.100")
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusTeapot, w.Code)
	require.NotEmpty(t, requestID)
	require.Equal(t, requestID, w.Header().Get(RequestIDHeader))
	require.Equal(t, "192.168.1.100", clientIP)

	out := buf.String()
	require.Contains(t, out, `"message":"inside handler"`)
	require.Contains(t, out, `"request_id":"`+requestID+`"`)
	require.Contains(t, out, `"status":418`)
	require.Contains(t, out, `"path":"/js/index.js"`)
}

func TestRequestLogger_keepsIncomingRequestID(t *testing.T) {
	handler := RequestLogger(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	handler.ServeHTTP(w, r)

	require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
