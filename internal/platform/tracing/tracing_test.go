package tracing

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"idledger/internal/platform/config"
)

func TestMiddlewareContinuesIncomingTrace(t *testing.T) {
	shutdown, err := Setup(context.Background(), "idledger-test", config.TracingConfig{SampleRatio: 1, Exporter: "none"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ledger/stats", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", seen)
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestSetupStdoutExporterShipsSpans(t *testing.T) {
	var out bytes.Buffer
	shutdown, err := Setup(context.Background(), "idledger-test",
		config.TracingConfig{SampleRatio: 1, Exporter: "stdout"}, WithWriter(&out))
	require.NoError(t, err)

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, span := otel.Tracer("test").Start(r.Context(), "ledger.stats")
		span.End()
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ledger/stats", nil))

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), `"Name":"ledger.stats"`)
	assert.Contains(t, out.String(), `"Name":"GET /ledger/stats"`)
}

func TestSetupRejectsUnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), "idledger-test", config.TracingConfig{SampleRatio: 1, Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestTracesURL(t *testing.T) {
	assert.Equal(t, "http://collector:4318/v1/traces", tracesURL("http://collector:4318"))
	assert.Equal(t, "http://collector:4318/v1/traces", tracesURL("http://collector:4318/"))
}
