// Package server serves the crime dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/matsen/crimedash/internal/sankey"
	"github.com/matsen/crimedash/internal/storage"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Store is the data the dashboard reads. *storage.DB implements it.
type Store interface {
	SankeyGraph(q storage.SankeyQuery) (*sankey.Graph, error)
	TopCrimes(year, limit int) ([]storage.LabelCount, error)
	TopDistricts(year, limit int) ([]storage.LabelCount, error)
	CrimeByDayOfWeek(year int) ([]storage.LabelCount, error)
	CrimeByMonth() ([]storage.MonthCount, error)
	MonthlyTrend(year int) ([]storage.MonthCount, error)
	Categories() ([]string, error)
	CategoryTrend(category string) ([]storage.YearCount, error)
	CategoryProportions(category string) ([]storage.CategoryShare, error)
	CrimeLocations(year int, crimeType string) ([]storage.Location, error)
	CrimeTypes() ([]string, error)
	Count() (int, error)
}

// Options configures a Server.
type Options struct {
	Addr      string
	Sankey    storage.SankeyQuery // defaults for the flow diagram
	Year      int                 // default year of the per-year panels
	RateLimit rate.Limit
	RateBurst int
	Logger    *log.Logger
}

// DefaultYear is the year shown when a request names none.
const DefaultYear = 2020

// Server is the dashboard HTTP server.
type Server struct {
	store   Store
	opts    Options
	logger  *log.Logger
	metrics *Metrics
	router  chi.Router
}

// New creates a server reading from store.
func New(store Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Year == 0 {
		opts.Year = DefaultYear
	}
	opts.Sankey = opts.Sankey.WithDefaults()
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Inf
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}

	s := &Server{
		store:   store,
		opts:    opts,
		logger:  opts.Logger,
		metrics: NewMetrics(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID, s.observe, s.recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit(rate.NewLimiter(s.opts.RateLimit, s.opts.RateBurst)))

		r.Get("/sankey", s.handleSankey)
		r.Get("/crimes/top", s.handleTopCrimes)
		r.Get("/crimes/by-weekday", s.handleByWeekday)
		r.Get("/crimes/by-month", s.handleByMonth)
		r.Get("/crimes/locations", s.handleLocations)
		r.Get("/crime-types", s.handleCrimeTypes)
		r.Get("/districts/top", s.handleTopDistricts)
		r.Get("/categories", s.handleCategories)
		r.Get("/categories/{category}/trend", s.handleCategoryTrend)
		r.Get("/categories/{category}/proportions", s.handleCategoryProportions)
	})

	return r
}

// Run listens on opts.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving dashboard", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
