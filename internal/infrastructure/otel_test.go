package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeOTel_MetricsOnly(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "invpulse-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		EnableMetrics:  true,
		SampleRatio:    1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	RecordUpload(context.Background(), metrics, "http", "completed", 4, 1, 250*time.Millisecond)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uploads_total")
	assert.Contains(t, rec.Body.String(), "products_processed_total")
}

func TestInitializeOTel_TwiceDoesNotCollide(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "none", EnableMetrics: true, SampleRatio: 1}, logger)
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "zipkin"}, logger)
	assert.ErrorContains(t, err, "unsupported trace exporter")
}

func TestRecordUpload_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordUpload(context.Background(), nil, "http", "failed", 0, 0, time.Second)
	})
}
