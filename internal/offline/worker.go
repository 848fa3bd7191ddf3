// Package offline is a caching front for the app's static origin. It keeps the
// app shell available when the origin is unreachable: static assets are served
// cache-first, everything else network-first with a cached fallback.
package offline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Strategy label values reported to the Recorder.
const (
	StrategyCacheFirst   = "cache-first"
	StrategyNetworkFirst = "network-first"
)

// Lookup results reported to the Recorder.
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultFallback = "fallback"
	ResultOffline  = "offline"
)

// ShellPath is the app shell, served when nothing better is cached.
const ShellPath = "/"

// Recorder receives cache decisions. *metrics.Metrics satisfies it.
type Recorder interface {
	CacheLookup(strategy, result string)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, string) {}

// Config names the caches and the app shell.
type Config struct {
	StaticCacheName  string
	RuntimeCacheName string
	// Manifest lists the paths fetched into the static cache on Install.
	Manifest []string
	// StaticExtensions are served cache-first, without the leading dot.
	StaticExtensions []string
	CacheSize        int
}

// DefaultConfig returns the shipped cache names and app shell.
func DefaultConfig() Config {
	return Config{
		StaticCacheName:  "shumpiss-static-v1",
		RuntimeCacheName: "shumpiss-v1",
		Manifest:         []string{"/", "/favicon.svg", "/app.css", "/manifest.json"},
		StaticExtensions: []string{"css", "js", "woff", "woff2", "ttf", "svg", "png", "jpg", "jpeg", "gif", "ico"},
		CacheSize:        DefaultCacheSize,
	}
}

// Worker is an http.Handler that answers GET requests from its caches or the
// network. Other methods go straight to the network.
type Worker struct {
	cfg      Config
	caches   *Caches
	fetch    Fetcher
	log      *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// WorkerOption customizes a Worker.
type WorkerOption func(*Worker)

// WithRecorder reports cache decisions to r.
func WithRecorder(r Recorder) WorkerOption {
	return func(w *Worker) {
		if r != nil {
			w.recorder = r
		}
	}
}

// WithCaches shares an existing cache registry, e.g. one that survived a
// config reload with older cache names.
func WithCaches(c *Caches) WorkerOption {
	return func(w *Worker) { w.caches = c }
}

// NewWorker builds a Worker over fetch. Zero-valued Config fields fall back to
// DefaultConfig.
func NewWorker(cfg Config, fetch Fetcher, log *slog.Logger, opts ...WorkerOption) *Worker {
	def := DefaultConfig()
	if cfg.StaticCacheName == "" {
		cfg.StaticCacheName = def.StaticCacheName
	}
	if cfg.RuntimeCacheName == "" {
		cfg.RuntimeCacheName = def.RuntimeCacheName
	}
	if cfg.Manifest == nil {
		cfg.Manifest = def.Manifest
	}
	if cfg.StaticExtensions == nil {
		cfg.StaticExtensions = def.StaticExtensions
	}
	w := &Worker{
		cfg:      cfg,
		fetch:    fetch,
		log:      log,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.caches == nil {
		w.caches = NewCaches(cfg.CacheSize)
	}
	return w
}

// Caches exposes the registry, mainly for inspection.
func (w *Worker) Caches() *Caches { return w.caches }

// Install fetches every manifest path concurrently and stores the 200
// responses in the static cache. A path that fails is logged and skipped;
// Install itself only fails when ctx is done.
func (w *Worker) Install(ctx context.Context) error {
	static := w.caches.Open(w.cfg.StaticCacheName)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range w.cfg.Manifest {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, p, nil)
			if err != nil {
				w.log.WarnContext(ctx, "failed to cache", "path", p, "error", err)
				return nil
			}
			resp, err := w.fetch.Fetch(gctx, req)
			if err != nil {
				w.log.WarnContext(ctx, "failed to cache", "path", p, "error", err)
				return nil
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != http.StatusOK {
				w.log.WarnContext(ctx, "skipped caching", "path", p, "status", resp.StatusCode)
				return nil
			}
			e, err := w.entryFrom(resp)
			if err != nil {
				w.log.WarnContext(ctx, "failed to cache", "path", p, "error", err)
				return nil
			}
			static.Put(p, e)
			w.log.DebugContext(ctx, "cached", "path", p)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("offline.Worker.Install: %w", err)
	}
	w.log.InfoContext(ctx, "static assets cached", "cache", w.cfg.StaticCacheName, "entries", static.Len())
	return nil
}

// Activate deletes every cache other than the current static and runtime
// caches and returns the deleted names.
func (w *Worker) Activate(ctx context.Context) []string {
	var deleted []string
	for _, name := range w.caches.Keys() {
		if name == w.cfg.StaticCacheName || name == w.cfg.RuntimeCacheName {
			continue
		}
		if w.caches.Delete(name) {
			w.log.InfoContext(ctx, "deleted old cache", "cache", name)
			deleted = append(deleted, name)
		}
	}
	w.caches.Open(w.cfg.RuntimeCacheName)
	return deleted
}

// ServeHTTP applies the caching strategy for r's path.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.passThrough(rw, r)
		return
	}
	if w.isStatic(r.URL.Path) {
		w.cacheFirst(rw, r)
		return
	}
	w.networkFirst(rw, r)
}

func (w *Worker) isStatic(p string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	return ext != "" && slices.Contains(w.cfg.StaticExtensions, ext)
}

func (w *Worker) cacheFirst(rw http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()
	if e, ok := w.caches.Match(key); ok {
		w.recorder.CacheLookup(StrategyCacheFirst, ResultHit)
		writeEntry(rw, e)
		return
	}

	e, err := w.fromNetwork(r)
	if err != nil {
		w.log.WarnContext(r.Context(), "network unavailable", "path", key, "error", err)
		w.serveShell(rw, r, StrategyCacheFirst)
		return
	}
	w.recorder.CacheLookup(StrategyCacheFirst, ResultMiss)
	writeEntry(rw, e)
}

func (w *Worker) networkFirst(rw http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()
	e, err := w.fromNetwork(r)
	if err == nil {
		w.recorder.CacheLookup(StrategyNetworkFirst, ResultMiss)
		writeEntry(rw, e)
		return
	}

	w.log.WarnContext(r.Context(), "network unavailable", "path", key, "error", err)
	if cached, ok := w.caches.Match(key); ok {
		w.recorder.CacheLookup(StrategyNetworkFirst, ResultHit)
		writeEntry(rw, cached)
		return
	}
	w.serveShell(rw, r, StrategyNetworkFirst)
}

// fromNetwork fetches r and stores a 200 response in the runtime cache.
func (w *Worker) fromNetwork(r *http.Request) (Entry, error) {
	resp, err := w.fetch.Fetch(r.Context(), r)
	if err != nil {
		return Entry{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	e, err := w.entryFrom(resp)
	if err != nil {
		return Entry{}, err
	}
	if e.Status == http.StatusOK {
		w.caches.Open(w.cfg.RuntimeCacheName).Put(r.URL.RequestURI(), e)
	}
	return e, nil
}

// serveShell answers with the cached app shell, or 503 when there is none.
func (w *Worker) serveShell(rw http.ResponseWriter, r *http.Request, strategy string) {
	if shell, ok := w.caches.Match(ShellPath); ok {
		w.recorder.CacheLookup(strategy, ResultFallback)
		writeEntry(rw, shell)
		return
	}
	w.recorder.CacheLookup(strategy, ResultOffline)
	w.log.ErrorContext(r.Context(), "offline and nothing cached", "path", r.URL.RequestURI())
	http.Error(rw, "Offline", http.StatusServiceUnavailable)
}

func (w *Worker) passThrough(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.fetch.Fetch(r.Context(), r)
	if err != nil {
		w.log.WarnContext(r.Context(), "network unavailable", "method", r.Method, "path", r.URL.RequestURI(), "error", err)
		http.Error(rw, "Bad Gateway", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	copyHeader(rw.Header(), resp.Header)
	rw.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(rw, resp.Body)
}

func (w *Worker) entryFrom(resp *http.Response) (Entry, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, fmt.Errorf("read body: %w", err)
	}
	return Entry{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: w.now(),
	}, nil
}

func writeEntry(rw http.ResponseWriter, e Entry) {
	copyHeader(rw.Header(), e.Header)
	rw.WriteHeader(e.Status)
	_, _ = rw.Write(e.Body)
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		if k == "Content-Length" {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
