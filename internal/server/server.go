// Package server exposes map generation over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /events                       websocket stream of store changes
//	POST   /maps                         generate and store a map
//	GET    /maps                         list stored maps, newest first
//	GET    /maps/{id}                    the stored map document
//	DELETE /maps/{id}
//	GET    /maps/{id}/render/{format}    render a stored map
//	POST   /maps/{id}/schedule           place trains on a stored map
//
// Errors are JSON problems, see [httputil.WriteError]. Every route except
// /events runs under a request timeout.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/railgen/pkg/buildinfo"
	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/httputil"
	mapio "github.com/matzehuels/railgen/pkg/io"
	"github.com/matzehuels/railgen/pkg/observability"
	"github.com/matzehuels/railgen/pkg/pipeline"
	"github.com/matzehuels/railgen/pkg/store"
)

// Limits on generation requests.
const (
	MaxDimension = 250
	MaxCities    = 64

	requestTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server handles the railgen HTTP API.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	router  chi.Router
	hub     *hub
	origins []string
}

// Option configures a Server.
type Option func(*Server)

// WithOrigins allows cross-origin /events subscriptions from hosts matching
// the given patterns, e.g. "*.example.com". Same-origin requests are always
// accepted.
func WithOrigins(patterns ...string) Option {
	return func(s *Server) {
		s.origins = append(s.origins, patterns...)
	}
}

// New creates a server backed by runner and st.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, store: st, logger: logger, hub: newHub()}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/events", s.events)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteJSON(w, http.StatusOK, Health{Status: "ok", Info: buildinfo.Get()})
		})

		r.Route("/maps", func(r chi.Router) {
			r.Post("/", s.createMap)
			r.Get("/", s.listMaps)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getMap)
				r.Delete("/", s.deleteMap)
				r.Get("/render/{format}", s.renderMap)
				r.Post("/schedule", s.scheduleMap)
			})
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(s.hub.closeAll)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// =============================================================================
// Middleware
// =============================================================================

// observe reports requests to the HTTP hooks and logs them at debug level.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// Health is the body returned by GET /healthz.
type Health struct {
	Status string `json:"status"`
	buildinfo.Info
}

// CreateResponse is the body returned by POST /maps.
type CreateResponse struct {
	ID     string           `json:"id"`
	Cached bool             `json:"cached"`
	Report generator.Report `json:"report"`
	Links  []generator.Link `json:"links"`
}

func (s *Server) createMap(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := httputil.DecodeJSON(r, &opts); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := checkLimits(opts); err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Refresh = false
	opts.Logger = s.logger

	m, hit, err := s.runner.GenerateWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.store.Save(r.Context(), m)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.hub.broadcast(Event{Type: EventMapCreated, ID: id, Report: &m.Report})

	w.Header().Set("Location", "/maps/"+id)
	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{
		ID:     id,
		Cached: hit,
		Report: m.Report,
		Links:  m.Links,
	})
}

func (s *Server) listMaps(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	httputil.WriteJSON(w, http.StatusOK, summaries)
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := mapio.Marshal(m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) deleteMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateMapID(id); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.hub.broadcast(Event{Type: EventMapDeleted, ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) renderMap(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	opts, err := renderOptions(r, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), m, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", httputil.ContentType(format))
	w.Header().Set("X-Cache", cacheHeader(hit))
	_, _ = w.Write(artifacts[format])
}

func (s *Server) scheduleMap(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.ScheduleOptions
	if err := httputil.DecodeJSON(r, &opts); err != nil {
		s.fail(w, r, err)
		return
	}
	if opts.Agents < 0 || opts.Agents > 4*MaxCities {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "at most %d agents can be requested", 4*MaxCities))
		return
	}
	m, err := s.load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sched, err := pipeline.BuildSchedule(m, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sched)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) load(r *http.Request) (*generator.Map, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateMapID(id); err != nil {
		return nil, err
	}
	return s.store.Load(r.Context(), id)
}

// fail writes err and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := httputil.WriteError(w, err); status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

// checkLimits rejects requests that would tie up the server.
func checkLimits(o pipeline.Options) error {
	if o.Width > MaxDimension || o.Height > MaxDimension {
		return errors.New(errors.ErrCodeInvalidInput, "map size is limited to %dx%d", MaxDimension, MaxDimension)
	}
	if o.MaxCities > MaxCities {
		return errors.New(errors.ErrCodeInvalidInput, "at most %d cities can be requested", MaxCities)
	}
	if o.MaxRailPairsInCity > MaxDimension/2 || o.MaxRailsBetweenCities > MaxDimension {
		return errors.New(errors.ErrCodeInvalidInput, "rail counts are limited by the %d cell map size", MaxDimension)
	}
	return pipeline.ValidateFormats(o.Formats)
}

// renderOptions reads render flags from the query string.
func renderOptions(r *http.Request, format string) (pipeline.Options, error) {
	opts := pipeline.Options{Formats: []string{format}}
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return opts, err
	}

	q := r.URL.Query()
	for name, dst := range map[string]*bool{
		"stations": &opts.Stations,
		"grid":     &opts.Grid,
		"detailed": &opts.Detailed,
	} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s=%q", name, v)
			}
			*dst = b
		}
	}
	if v := q.Get("cell_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "cell_size must be between 1 and 100")
		}
		opts.CellSize = n
	}
	return opts, nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
