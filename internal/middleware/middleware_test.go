package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rinniizz/crudapi/internal/auth"
	"github.com/rinniizz/crudapi/internal/models"
	"github.com/rinniizz/crudapi/internal/observability"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestSecureLogger_RedactsSensitiveQuery(t *testing.T) {
	var buf bytes.Buffer
	handler := SecureLogger(newBufferLogger(&buf))(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/auth/login?password=hunter2", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "?[REDACTED]")
}

func TestSecureLogger_RecordsStatusAndUser(t *testing.T) {
	var buf bytes.Buffer
	handler := SecureLogger(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/api/v1/users?page=2", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &models.TokenClaims{UserID: 42}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, float64(42), entry["user_id"])
	assert.Equal(t, "/api/v1/users?page=2", entry["path"])
}

func TestRecoverer_WritesEnvelope(t *testing.T) {
	var buf bytes.Buffer
	handler := Recoverer(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var env pkghttp.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Message)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestCORS_AllowedOrigin(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"http://localhost:3000"}))(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"http://localhost:3000"}))(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(DefaultCORSConfig([]string{"http://localhost:3000"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, called)
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PUT"))
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	r := chi.NewRouter()
	r.Use(Metrics(prom))
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(prom.RequestsTotal.WithLabelValues("GET", "/users/{id}", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(prom.InFlight.WithLabelValues("GET")))
}

func TestMetrics_NilPromPassesThrough(t *testing.T) {
	w := httptest.NewRecorder()
	Metrics(nil)(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(context.Background())
	})

	r := chi.NewRouter()
	r.Use(Tracing())
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest("GET", "/users/5", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /users/{id}", spans[0].Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}
