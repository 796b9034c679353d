// Package chi exposes the search service over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/feedsearch/internal/logger"
	"github.com/kailas-cloud/feedsearch/internal/metrics"
	healthuc "github.com/kailas-cloud/feedsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/feedsearch/internal/usecase/search"
)

// errorCode is the machine-readable code of an error response.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeInvalidCondition errorCode = "invalid_condition"
	codeQueryTooComplex  errorCode = "query_too_complex"
	codeIndexClosed      errorCode = "index_closed"
	codeReindexRunning   errorCode = "reindex_running"
	codeNotFound         errorCode = "not_found"
	codeUnauthorized     errorCode = "unauthorized"
	codeSearchFailure    errorCode = "search_failure"
	codeInternalError    errorCode = "internal_error"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchService is the search surface served over HTTP.
type SearchService interface {
	Search(ctx context.Context, conds []condition.Condition, matchAll bool) ([]result.Hit, error)
	SearchByExactLink(ctx context.Context, link string, copiesOnly bool) ([]domain.EntityRef, error)
	SearchByExternalGUID(ctx context.Context, guid string, copiesOnly bool) ([]domain.EntityRef, error)
	ReindexAll(ctx context.Context, progress searchuc.ProgressSink) error
	ClearIndex(ctx context.Context) error
	Optimize(ctx context.Context) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the search API.
type Server struct {
	search        SearchService
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler

	jobMu sync.Mutex
	job   *reindexJob
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{search: search, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		inputHandler(domain.ErrInvalidCondition, http.StatusBadRequest, codeInvalidCondition),
		sentinelHandler(domain.ErrTooManyClauses, http.StatusUnprocessableEntity, codeQueryTooComplex),
		sentinelHandler(domain.ErrIndexClosed, http.StatusServiceUnavailable, codeIndexClosed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrSearchFailure, http.StatusInternalServerError, codeSearchFailure),
	}
	return s
}

// NewRouter mounts the API on a chi router with the standard middleware chain.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/search/link", s.SearchByLink)
		r.Get("/search/guid", s.SearchByGUID)

		r.Route("/index", func(r chi.Router) {
			r.Post("/reindex", s.StartReindex)
			r.Get("/reindex", s.ReindexStatus)
			r.Delete("/reindex", s.CancelReindex)
			r.Post("/clear", s.ClearIndex)
			r.Post("/optimize", s.Optimize)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}

type hitItem struct {
	Type  string  `json:"type"`
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
	State string  `json:"state,omitempty"`
}

type searchResponse struct {
	Items []hitItem `json:"items"`
	Total int       `json:"total"`
}

type refItem struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

type refsResponse struct {
	Items []refItem `json:"items"`
	Total int       `json:"total"`
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	conds, matchAll, err := req.toConditions()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	hits, err := s.search.Search(r.Context(), conds, matchAll)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]hitItem, len(hits))
	for i := range hits {
		ref := hits[i].Ref()
		items[i] = hitItem{Type: ref.Type, ID: ref.ID, Score: hits[i].Score()}
		if st, ok := hits[i].State(); ok {
			items[i].State = st.String()
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

// SearchByLink handles GET /v1/search/link?url=&copies=.
func (s *Server) SearchByLink(w http.ResponseWriter, r *http.Request) {
	s.searchExact(w, r, "url", s.search.SearchByExactLink)
}

// SearchByGUID handles GET /v1/search/guid?guid=&copies=.
func (s *Server) SearchByGUID(w http.ResponseWriter, r *http.Request) {
	s.searchExact(w, r, "guid", s.search.SearchByExternalGUID)
}

func (s *Server) searchExact(
	w http.ResponseWriter, r *http.Request, param string,
	find func(ctx context.Context, value string, copiesOnly bool) ([]domain.EntityRef, error),
) {
	q := r.URL.Query()
	value := q.Get(param)
	if value == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query parameter "+param+" is required")
		return
	}

	copiesOnly := false
	if raw := q.Get("copies"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "query parameter copies must be a boolean")
			return
		}
		copiesOnly = b
	}

	refs, err := find(r.Context(), value, copiesOnly)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]refItem, len(refs))
	for i, ref := range refs {
		items[i] = refItem{Type: ref.Type, ID: ref.ID}
	}
	writeJSON(w, http.StatusOK, refsResponse{Items: items, Total: len(items)})
}

// ClearIndex handles POST /v1/index/clear.
func (s *Server) ClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.search.ClearIndex(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Optimize handles POST /v1/index/optimize.
func (s *Server) Optimize(w http.ResponseWriter, r *http.Request) {
	if err := s.search.Optimize(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status    healthuc.Status                 `json:"status"`
	Checks    map[string]healthuc.CheckResult `json:"checks"`
	Documents uint64                          `json:"documents"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:    report.Status,
		Checks:    report.Checks,
		Documents: report.Documents,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTooManyClauses,
		domain.ErrIndexClosed,
		domain.ErrNotFound,
		domain.ErrSearchFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// inputHandler is a sentinelHandler for errors caused by the request itself;
// the full message is returned to the client.
func inputHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
