// Package chi exposes the HTTP API: agenda search, agenda reads, the
// top-agendas listing, usage and health. Routing is plain go-chi with
// hand-written handlers.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/civica-cloud/agendex/internal/domain"
	domsearch "github.com/civica-cloud/agendex/internal/domain/search"
	agendauc "github.com/civica-cloud/agendex/internal/usecase/agenda"
	healthuc "github.com/civica-cloud/agendex/internal/usecase/health"
	searchuc "github.com/civica-cloud/agendex/internal/usecase/search"
	usageuc "github.com/civica-cloud/agendex/internal/usecase/usage"
)

const (
	defaultTopLimit = 5
	maxTopLimit     = 50
	maxQueryLen     = 500
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecases behind the HTTP routes.
type Server struct {
	search        *searchuc.Service
	agendas       *agendauc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	agendas *agendauc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		agendas: agendas,
		usage:   usage,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrAgendaNotFound, http.StatusNotFound, "agenda_not_found"),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, "index_unavailable"),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"),
		sentinelHandler(domain.ErrAnalysisUnavailable, http.StatusBadGateway, "analysis_unavailable"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
	}
	return s
}

// Routes mounts the API handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/search", s.SearchAgendas)
	r.Get("/api/agendas/{agendaID}", s.GetAgenda)
	r.Get("/api/agendas/{agendaID}/formatted", s.GetAgendaFormatted)
	r.Get("/api/top-agendas", s.TopAgendas)
	r.Get("/api/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"nResults"`
}

type searchResponse struct {
	Query        string             `json:"query"`
	TotalResults int                `json:"totalResults"`
	Results      []domsearch.Result `json:"results"`
}

// SearchAgendas handles POST /api/search.
func (s *Server) SearchAgendas(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}
	if len(query) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"query must be at most "+strconv.Itoa(maxQueryLen)+" characters")
		return
	}
	if req.NumResults < 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "nResults must be positive")
		return
	}

	results, err := s.search.Search(r.Context(), query, req.NumResults)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:        query,
		TotalResults: len(results),
		Results:      results,
	})
}

// GetAgenda handles GET /api/agendas/{agendaID}.
func (s *Server) GetAgenda(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agendaID")

	detail, err := s.agendas.Detail(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// GetAgendaFormatted handles GET /api/agendas/{agendaID}/formatted.
func (s *Server) GetAgendaFormatted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agendaID")

	detail, err := s.agendas.FormattedDetail(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// TopAgendas handles GET /api/top-agendas.
func (s *Server) TopAgendas(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopLimit {
			writeError(w, http.StatusBadRequest, "validation_failed",
				"limit must be between 1 and "+strconv.Itoa(maxTopLimit))
			return
		}
		limit = n
	}

	top, err := s.agendas.Top(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalResults": len(top),
		"agendas":      top,
	})
}

// GetUsage handles GET /api/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.usage.Summary())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrAgendaNotFound,
		domain.ErrIndexUnavailable,
		domain.ErrStoreUnavailable,
		domain.ErrAnalysisUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
