// Package web serves the analysis page and its JSON endpoint.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"

	"idea-stack/internal/models"
	"idea-stack/shared/apierr"
	"idea-stack/shared/monitoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const maxRequestBody = 1 << 20

// Analyzer is the orchestrator the handler delegates to.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error)
}

type Handler struct {
	analyzer Analyzer
}

func NewHandler(analyzer Analyzer) *Handler {
	return &Handler{analyzer: analyzer}
}

// NewRouter mounts the page, the analyze endpoint, health and metrics.
func NewRouter(analyzer Analyzer, monitor *monitoring.Monitor, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := NewHandler(analyzer)

	r.Get("/", h.Index)
	r.Post("/api/analyze", h.Analyze)

	r.Get("/health", monitoring.HealthHandler(monitor))
	r.Get("/status", monitoring.StatusHandler(monitor))
	r.Handle("/metrics", monitoring.MetricsHandler(gatherer))

	return r
}

type pageData struct {
	Placeholder string
	Formats     []string
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, pageData{
		Placeholder: "Enter YouTube channel URL (e.g., https://youtube.com/@channelname)",
		Formats:     []string{"youtube.com/@channel", "youtube.com/channel/ID", "youtube.com/c/name", "youtube.com/user/name", "@handle"},
	})
	if err != nil {
		log.Printf("Failed to render page: %v", err)
	}
}

type analyzeRequest struct {
	URL any `json:"url"`
}

type analyzeResponse struct {
	Success bool `json:"success"`
	*models.AnalysisResult
}

type errorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Hint    string   `json:"hint,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	rawURL, ok := decodeURL(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if !ok {
		writeError(w, apierr.New(apierr.KindValidation, "URL is required and must be a string"))
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), rawURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Success: true, AnalysisResult: result})
	log.Printf("[responded] %s", result.Summary())
}

// decodeURL accepts only a body whose "url" member is a JSON string.
func decodeURL(body io.Reader) (string, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return "", false
	}

	rawURL, ok := req.URL.(string)
	return rawURL, ok
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var e *apierr.Error
	if errors.As(err, &e) {
		resp.Hint = e.Hint
		resp.Missing = e.Missing
	}

	status := apierr.StatusCode(err)
	log.Printf("[responded] status=%d error=%q", status, resp.Error)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
