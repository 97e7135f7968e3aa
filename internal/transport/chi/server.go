package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/itemsearch/internal/domain"
	"github.com/kailas-cloud/itemsearch/internal/domain/batch"
	"github.com/kailas-cloud/itemsearch/internal/domain/item"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/query"
	"github.com/kailas-cloud/itemsearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/itemsearch/internal/logger"
	"github.com/kailas-cloud/itemsearch/internal/metrics"
	healthuc "github.com/kailas-cloud/itemsearch/internal/usecase/health"
)

// Searcher runs scoped vector search for a user.
type Searcher interface {
	Search(ctx context.Context, userID string, q *query.Query) ([]result.Result, error)
}

// ItemEmbedder embeds and stores a single item.
type ItemEmbedder interface {
	EmbedItem(ctx context.Context, it *item.Item) error
}

// Regenerator re-embeds the whole catalog.
type Regenerator interface {
	Run(ctx context.Context) (batch.Report, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error and returns true when it wrote a response.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the item search HTTP API.
type Server struct {
	search        Searcher
	items         ItemEmbedder
	regen         Regenerator
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP handlers.
func NewServer(
	search Searcher,
	items ItemEmbedder,
	regen Regenerator,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		items:  items,
		regen:  regen,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"),
	}
	return s
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// --- Search ---

type searchRequest struct {
	Query               string   `json:"query"`
	TopK                *int     `json:"topK,omitempty"`
	Category            *string  `json:"category,omitempty"`
	SimilarityThreshold *float64 `json:"similarityThreshold,omitempty"`
}

type searchItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Details    string  `json:"details,omitempty"`
	Category   string  `json:"category"`
	Location   string  `json:"location,omitempty"`
	GroupID    string  `json:"group_id"`
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	topK := query.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	threshold := query.DefaultSimilarityThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}

	q, err := query.New(req.Query, topK, req.Category, threshold)
	if err != nil {
		s.handleDomainError(w, r, err, "Search failed")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.Search(ctx, userID, &q)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err, "Search failed")
		return
	}

	resp := searchResponse{Items: make([]searchItem, 0, len(results))}
	for i := range results {
		res := &results[i]
		resp.Items = append(resp.Items, searchItem{
			ID:         res.ID(),
			Title:      res.Title(),
			Details:    res.Details(),
			Category:   res.Category(),
			Location:   res.Location(),
			GroupID:    res.GroupID(),
			Similarity: res.Similarity(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Single item embedding ---

type embedItemRequest struct {
	ItemID   string `json:"item_id"`
	Title    string `json:"title"`
	Details  string `json:"details,omitempty"`
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// EmbedItem handles POST /v1/items/embedding.
func (s *Server) EmbedItem(w http.ResponseWriter, r *http.Request) {
	var req embedItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	it, err := item.New(req.ItemID, req.Title, req.Details, req.Category, req.Location)
	if err != nil {
		s.handleDomainError(w, r, err, "Failed to generate embedding")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	err = s.items.EmbedItem(ctx, &it)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err, "Failed to generate embedding")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// --- Regeneration ---

type regenerateResponse struct {
	Message    string   `json:"message"`
	TotalItems int      `json:"totalItems"`
	Processed  int      `json:"processed"`
	Success    []string `json:"success"`
	Errors     []string `json:"errors"`
	RunID      string   `json:"runId"`
}

// RegenerateEmbeddings handles POST /v1/embeddings/regenerate.
func (s *Server) RegenerateEmbeddings(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserIDFromContext(r.Context()); !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.regen.Run(ctx)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err, "Failed to regenerate embeddings")
		return
	}

	writeJSON(w, http.StatusOK, regenerateResponse{
		Message:    report.Message(),
		TotalItems: report.Total,
		Processed:  report.Processed(),
		Success:    nonNil(report.Succeeded),
		Errors:     nonNil(report.Errors),
		RunID:      report.RunID,
	})
}

// --- Health & metrics ---

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Error mapping ---

func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Field + " " + ve.Reason})
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return true
	}
	return false
}

func sentinelHandler(sentinel error, status int, msg string) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, status, ErrorResponse{Error: msg})
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
			return
		}
	}

	logpkg.FromContext(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msg, Details: err.Error()})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set(metrics.EmbeddingTokensHeader, strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
