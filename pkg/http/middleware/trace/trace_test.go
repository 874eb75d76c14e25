package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTraceMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	testCases := map[string]struct {
		status         int
		expectedStatus codes.Code
	}{
		"should leave successful spans unset": {status: http.StatusOK, expectedStatus: codes.Unset},
		"should leave client errors unset":    {status: http.StatusBadRequest, expectedStatus: codes.Unset},
		"should mark server errors":           {status: http.StatusServiceUnavailable, expectedStatus: codes.Error},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var inner trace.SpanContext
			h := NewTraceMiddleware("booking-svc")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				inner = trace.SpanContextFromContext(r.Context())
				w.WriteHeader(tc.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders", nil))

			ended := recorder.Ended()
			require.NotEmpty(t, ended)
			span := ended[len(ended)-1]

			assert.Equal(t, "GET /orders", span.Name())
			assert.Equal(t, trace.SpanKindServer, span.SpanKind())
			assert.Equal(t, inner.SpanID(), span.SpanContext().SpanID())
			assert.Equal(t, tc.expectedStatus, span.Status().Code)
			assert.Contains(t, span.Attributes(), semconv.HTTPStatusCodeKey.Int(tc.status))
		})
	}
}
