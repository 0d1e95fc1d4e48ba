package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matsen/crimedash/internal/config"
	"github.com/matsen/crimedash/internal/sankey"
	"github.com/matsen/crimedash/internal/storage"
	"github.com/matsen/crimedash/internal/viz"
)

// errBadRequest marks parameter errors.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: w.Header().Get(RequestIDHeader)})
}

// statusFor maps an error to its HTTP status. Invalid flow-graph input and
// bad parameters are client errors; anything else is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, sankey.ErrInvalidLayerSpec),
		errors.Is(err, sankey.ErrMissingField),
		errors.Is(err, sankey.ErrInvalidValueType),
		errors.Is(err, sankey.ErrInvalidLabel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respond writes v, or the error with its mapped status.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed", "id", RequestIDFromContext(r.Context()), "path", r.URL.Path, "err", err)
			writeError(w, status, "internal server error")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// intParam parses an integer query parameter, returning def when absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errBadRequest, name, raw)
	}
	return n, nil
}

// boolParam parses a boolean query parameter, returning def when absent.
func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", errBadRequest, name, raw)
	}
	return b, nil
}

// sankeyQuery merges request parameters over the configured defaults.
func (s *Server) sankeyQuery(r *http.Request) (storage.SankeyQuery, error) {
	q := s.opts.Sankey
	var err error

	if q.StartYear, err = intParam(r, "start", q.StartYear); err != nil {
		return q, err
	}
	if q.EndYear, err = intParam(r, "end", q.EndYear); err != nil {
		return q, err
	}
	if q.TopN, err = intParam(r, "top", q.TopN); err != nil {
		return q, err
	}
	if q.NamespaceLayers, err = boolParam(r, "namespace", q.NamespaceLayers); err != nil {
		return q, err
	}
	if raw := r.URL.Query().Get("layers"); raw != "" {
		q.Layers = config.ParseLayers(raw)
	}
	if v := strings.TrimSpace(r.URL.Query().Get("value")); v != "" {
		q.ValueField = v
	}

	if q.StartYear > q.EndYear {
		return q, fmt.Errorf("%w: start %d is after end %d", errBadRequest, q.StartYear, q.EndYear)
	}
	if q.TopN < 0 {
		return q, fmt.Errorf("%w: top must not be negative", errBadRequest)
	}
	return q, nil
}

func (s *Server) flowGraph(r *http.Request) (*sankey.Graph, error) {
	q, err := s.sankeyQuery(r)
	if err != nil {
		return nil, err
	}
	g, err := s.store.SankeyGraph(q)
	if err != nil {
		return nil, err
	}
	s.metrics.SankeyLinks.Observe(float64(len(g.Links)))
	return g, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	g, err := s.flowGraph(r)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}

	page, err := viz.GenerateHTML(g, viz.DefaultOptions())
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count()
	if err != nil {
		s.logger.Error("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "incidents": n})
}

func (s *Server) handleSankey(w http.ResponseWriter, r *http.Request) {
	g, err := s.flowGraph(r)
	s.respond(w, r, g, err)
}

func (s *Server) handleTopCrimes(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", 0)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	limit, err := intParam(r, "limit", storage.DefaultTopCrimesLimit)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	out, err := s.store.TopCrimes(year, limit)
	s.respond(w, r, out, err)
}

func (s *Server) handleTopDistricts(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", s.opts.Year)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	limit, err := intParam(r, "limit", storage.DefaultTopDistrictsLimit)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	out, err := s.store.TopDistricts(year, limit)
	s.respond(w, r, out, err)
}

func (s *Server) handleByWeekday(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", s.opts.Year)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	out, err := s.store.CrimeByDayOfWeek(year)
	s.respond(w, r, out, err)
}

// handleByMonth returns every (year, month) count, or one year's when the
// year parameter is given.
func (s *Server) handleByMonth(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", 0)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	if year == 0 {
		out, err := s.store.CrimeByMonth()
		s.respond(w, r, out, err)
		return
	}
	out, err := s.store.MonthlyTrend(year)
	s.respond(w, r, out, err)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", s.opts.Year)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	out, err := s.store.CrimeLocations(year, r.URL.Query().Get("type"))
	s.respond(w, r, out, err)
}

func (s *Server) handleCrimeTypes(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.CrimeTypes()
	s.respond(w, r, out, err)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.Categories()
	s.respond(w, r, out, err)
}

func (s *Server) handleCategoryTrend(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.CategoryTrend(chi.URLParam(r, "category"))
	s.respond(w, r, out, err)
}

func (s *Server) handleCategoryProportions(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.CategoryProportions(chi.URLParam(r, "category"))
	s.respond(w, r, out, err)
}
