// Package handler implements the HTTP API for pinlog.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, location.go, pin.go, etc.) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/logging"
	"github.com/shumpiss/pinlog/internal/metrics"
	"github.com/shumpiss/pinlog/internal/middleware"
)

// LocationServicer defines the location and instance operations the handlers
// depend on. Defined here, in the consumer package, so handler tests can
// inject a mock without touching storage.
type LocationServicer interface {
	LoadLocations(ctx context.Context) ([]domain.Location, error)
	AddLocation(ctx context.Context, in domain.LocationInput) (domain.Location, error)
	UpdateLocation(ctx context.Context, loc domain.Location) (domain.Location, error)
	DeleteLocation(ctx context.Context, id string) error
	AddInstance(ctx context.Context, in domain.InstanceInput) (domain.Instance, error)
	UpdateInstance(ctx context.Context, inst domain.Instance) (domain.Instance, error)
	DeleteInstance(ctx context.Context, locationID, instanceID string) error
	ClearAllData(ctx context.Context) error
	ExportData(ctx context.Context) (string, error)
	ImportData(ctx context.Context, data string) ([]domain.Location, error)
	GetInstancesByDate(ctx context.Context, ascending bool) ([]domain.Instance, error)
	GetLocationByID(ctx context.Context, id string) (domain.Location, bool, error)
	GetInstanceByID(ctx context.Context, id string) (domain.InstanceRef, bool, error)
}

// PinServicer defines the legacy pin operations the handlers depend on.
type PinServicer interface {
	AddPin(ctx context.Context, in domain.PinInput) (domain.Pin, error)
	UpdatePin(ctx context.Context, p domain.Pin) (domain.Pin, error)
	DeletePin(ctx context.Context, id string) error
	ClearAllPins(ctx context.Context) error
	ExportPins(ctx context.Context) (string, error)
	ImportPins(ctx context.Context, data string) ([]domain.Pin, error)
	GetPinsByDate(ctx context.Context, ascending bool) ([]domain.Pin, error)
	GetPinsByDateGrouped(ctx context.Context) ([]domain.DateGroup, error)
}

// ExportServicer produces the flat export table.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	locations LocationServicer
	pins      PinServicer
	export    ExportServicer
	log       *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger discards handler logs.
func NewServer(locations LocationServicer, pins PinServicer, export ExportServicer, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	return &Server{locations: locations, pins: pins, export: export, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Routes registers every API endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/locations", func(r chi.Router) {
		r.Get("/", s.ListLocations)
		r.Post("/", s.CreateLocation)
		r.Route("/{locationId}", func(r chi.Router) {
			r.Get("/", s.GetLocation)
			r.Put("/", s.UpdateLocation)
			r.Delete("/", s.DeleteLocation)
			r.Post("/instances", s.CreateInstance)
			r.Put("/instances/{instanceId}", s.UpdateInstance)
			r.Delete("/instances/{instanceId}", s.DeleteInstance)
		})
	})

	r.Get("/instances", s.ListInstances)
	r.Get("/instances/{instanceId}", s.GetInstance)

	r.Get("/export", s.GetExport)
	r.Post("/import", s.ImportData)
	r.Delete("/data", s.ClearData)

	r.Route("/pins", func(r chi.Router) {
		r.Get("/", s.ListPins)
		r.Post("/", s.CreatePin)
		r.Delete("/", s.ClearPins)
		r.Get("/grouped", s.GetPinsGrouped)
		r.Get("/export", s.ExportPins)
		r.Post("/import", s.ImportPins)
		r.Put("/{pinId}", s.UpdatePin)
		r.Delete("/{pinId}", s.DeletePin)
	})
}

// RouterConfig carries the cross-cutting pieces NewRouter wires around the API.
// Zero values switch the corresponding feature off.
type RouterConfig struct {
	Logger       *slog.Logger
	CORSOrigins  []string
	MaxBodyBytes int64
	Metrics      *metrics.Metrics
	// Gatherer backs GET /metrics.
	Gatherer prometheus.Gatherer
	// Fallback receives every request no API route matched, typically the
	// offline cache worker fronting the client application.
	Fallback http.Handler
}

// NewRouter builds the chi router with the standard middleware stack.
// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer,
// then CORS, body limit and metrics.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = s.log
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsHandler(cfg.Metrics))
	}

	s.Routes(r)

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Fallback != nil {
		r.NotFound(cfg.Fallback.ServeHTTP)
	}
	return r
}
