package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/book-agent/internal/core/domain"
	"github.com/kirillkom/book-agent/internal/core/ports"
	"github.com/kirillkom/book-agent/internal/core/usecase"
	"github.com/kirillkom/book-agent/internal/observability/metrics"
)

type Options struct {
	Service        string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueWait      time.Duration
	DefaultTopK    int
}

type Router struct {
	ingest    ports.BookIngestor
	books     ports.BookReader
	retriever ports.Retriever
	answerer  ports.QuestionAnswerer
	contexts  *usecase.ContextExtractor
	metrics   *metrics.HTTPServerMetrics
	options   Options
}

func NewRouter(
	ingest ports.BookIngestor,
	books ports.BookReader,
	retriever ports.Retriever,
	answerer ports.QuestionAnswerer,
	contexts *usecase.ContextExtractor,
	serverMetrics *metrics.HTTPServerMetrics,
	options Options,
) *Router {
	if options.Service == "" {
		options.Service = "api"
	}
	if options.DefaultTopK <= 0 {
		options.DefaultTopK = 5
	}
	return &Router{
		ingest:    ingest,
		books:     books,
		retriever: retriever,
		answerer:  answerer,
		contexts:  contexts,
		metrics:   serverMetrics,
		options:   options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/v1/books", rt.uploadBook)
	mux.HandleFunc("/v1/books/", rt.bookSubresource)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/ask", rt.ask)

	queueWait := rt.options.QueueWait
	if queueWait <= 0 {
		queueWait = 100 * time.Millisecond
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.options.MaxInFlight, queueWait)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.options.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	book, err := rt.ingest.Upload(
		r.Context(),
		r.FormValue("title"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, book)
}

// bookSubresource serves /v1/books/{id}, /v1/books/{id}/chunks and
// /v1/books/{id}/context.
func (rt *Router) bookSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/books/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "book id is required")
		return
	}

	switch sub {
	case "":
		rt.getBookByID(w, r, id)
	case "chunks":
		rt.listBookChunks(w, r, id)
	case "context":
		rt.extractContext(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (rt *Router) getBookByID(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	book, err := rt.books.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (rt *Router) listBookChunks(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	chunks, err := rt.books.ListChunks(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"book_id": id,
		"chunks":  chunks,
		"count":   len(chunks),
	})
}

func (rt *Router) extractContext(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	fragments, err := rt.contexts.ExtractWindow(r.Context(), id, req.Target)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"book_id":   id,
		"fragments": fragments,
		"count":     len(fragments),
	})
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Query    string `json:"query"`
		BookID   string `json:"book_id"`
		Strategy string `json:"strategy"`
		TopK     int    `json:"top_k"`
		Rerank   bool   `json:"rerank"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.TopK == 0 {
		req.TopK = rt.options.DefaultTopK
	}
	if req.Strategy == "" {
		req.Strategy = string(domain.StrategyHybrid)
	}

	start := time.Now()
	candidates, strategyLabel, err := rt.dispatchRetrieve(r, req.Query, req.BookID, req.Strategy, req.TopK, req.Rerank)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(rt.options.Service, strategyLabel, len(candidates), time.Since(start))
	}
	annotateRequest(r.Context(), "strategy", strategyLabel, "candidates", len(candidates), "top_k", req.TopK)
	if candidates == nil {
		candidates = []domain.ScoredCandidate{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": candidates,
		"count":      len(candidates),
		"strategy":   strategyLabel,
	})
}

func (rt *Router) dispatchRetrieve(
	r *http.Request,
	query, bookID, strategy string,
	topK int,
	rerank bool,
) ([]domain.ScoredCandidate, string, error) {
	ctx := r.Context()

	if rerank {
		candidates, err := rt.retriever.RetrieveWithReranking(ctx, query, bookID, topK)
		return candidates, "rerank", err
	}

	parsed, err := domain.ParseStrategy(strategy)
	if err != nil {
		return nil, strategy, domain.WrapError(domain.ErrInvalidInput, "parse strategy", err)
	}

	switch parsed {
	case domain.StrategySemantic:
		candidates, err := rt.retriever.RetrieveSemantic(ctx, query, bookID, topK)
		return candidates, string(parsed), err
	case domain.StrategyKeyword:
		candidates, err := rt.retriever.RetrieveKeyword(ctx, query, bookID, topK)
		return candidates, string(parsed), err
	default:
		candidates, err := rt.retriever.RetrieveHybrid(ctx, query, bookID, topK)
		return candidates, string(parsed), err
	}
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Question string `json:"question"`
		BookID   string `json:"book_id"`
		TopK     int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	annotateRequest(r.Context(), "book_id", req.BookID)
	answer, err := rt.answerer.Ask(r.Context(), req.Question, req.BookID, req.TopK)
	if rt.metrics != nil {
		rt.metrics.RecordAsk(rt.options.Service, err)
	}
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
