package handler_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shumpiss/pinlog/internal/handler"
	"github.com/shumpiss/pinlog/internal/metrics"
)

func TestNewRouter_unmatchedRequestsGoToFallback(t *testing.T) {
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("fallback:" + r.URL.Path))
	})
	h := handler.NewRouter(handler.NewHealthHandler(), handler.RouterConfig{Fallback: fallback})

	rec := serve(h, http.MethodGet, "/app/main.css", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "fallback:/app/main.css", rec.Body.String())

	rec = serve(h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_withoutFallbackUnknownRouteIs404(t *testing.T) {
	h := handler.NewRouter(handler.NewHealthHandler(), handler.RouterConfig{})

	rec := serve(h, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRouter_servesPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New()
	require.NoError(t, m.Register(reg))
	h := handler.NewRouter(handler.NewHealthHandler(), handler.RouterConfig{Metrics: m, Gatherer: reg})

	serve(h, http.MethodGet, "/healthz", nil)
	rec := serve(h, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pinlog_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestNewRouter_oversizedBodyIs413(t *testing.T) {
	h := handler.NewRouter(handler.NewServer(&mockLocationServicer{}, nil, nil, nil),
		handler.RouterConfig{MaxBodyBytes: 16})

	rec := serve(h, http.MethodPost, "/locations", bytes.NewBufferString(strings.Repeat("x", 64)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestNewRouter_propagatesRequestID(t *testing.T) {
	var seen string
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimiddleware.GetReqID(r.Context())
	})
	h := handler.NewRouter(handler.NewHealthHandler(), handler.RouterConfig{Fallback: fallback})

	req := serveWithHeader(h, "/anything", "X-Request-Id", "req-42")

	assert.Equal(t, http.StatusOK, req.Code)
	assert.Equal(t, "req-42", seen)
}
