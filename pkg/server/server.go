// Package server exposes the orchestrator over HTTP for the compliance
// dashboard: case lookups, the three inference operations, document
// management, and budget and usage reporting.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/riskline-ai/riskline/pkg/cases"
	"github.com/riskline-ai/riskline/pkg/config"
	"github.com/riskline-ai/riskline/pkg/docstore"
	"github.com/riskline-ai/riskline/pkg/models"
)

// maxUploadBytes caps document uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// Inference is the orchestrator surface the server needs.
type Inference interface {
	Explain(ctx context.Context, caseID string) (*models.InferenceResult, error)
	Score(ctx context.Context, caseID string) (*models.InferenceResult, error)
	AnalyzeCompliance(ctx context.Context, caseID string, useDocuments bool) (*models.InferenceResult, error)
	BudgetStatus() models.BudgetStatus
}

// UsageReader answers usage reporting queries. Nil disables /usage.
type UsageReader interface {
	Summary(ctx context.Context) ([]models.UsageSummary, error)
	Recent(ctx context.Context, limit int) ([]models.UsageRecord, error)
}

// Server is the Riskline HTTP API.
type Server struct {
	cfg   *config.Config
	orch  Inference
	cases *cases.Store
	docs  *docstore.Store
	usage UsageReader
	mux   *http.ServeMux
}

// New creates a Server wired with all dependencies.
func New(cfg *config.Config, orch Inference, caseStore *cases.Store, docs *docstore.Store, usage UsageReader) *Server {
	s := &Server{
		cfg:   cfg,
		orch:  orch,
		cases: caseStore,
		docs:  docs,
		usage: usage,
		mux:   http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /cases", s.handleListCases)
	s.mux.HandleFunc("GET /cases/{id}", s.handleGetCase)
	s.mux.HandleFunc("POST /explain", s.handleExplain)
	s.mux.HandleFunc("POST /score", s.handleScore)
	s.mux.HandleFunc("POST /compliance", s.handleCompliance)
	s.mux.HandleFunc("POST /documents", s.handleUploadDocument)
	s.mux.HandleFunc("GET /documents", s.handleListDocuments)
	s.mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	s.mux.HandleFunc("GET /budget", s.handleBudget)
	s.mux.HandleFunc("GET /usage", s.handleUsage)
	return s
}

// ServeHTTP implements http.Handler with CORS for the dashboard origin.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.cfg.FrontendURL != "" {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.FrontendURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the API server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("riskline api listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.orch.BudgetStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"budget_remaining_usd": status.RemainingUSD,
	})
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cases.List(r.Context()))
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.cases.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// inferenceRequest is the body of the three inference endpoints.
type inferenceRequest struct {
	CaseID       string `json:"case_id"`
	UseDocuments bool   `json:"use_documents"`
}

func decodeInferenceRequest(w http.ResponseWriter, r *http.Request) (inferenceRequest, bool) {
	var req inferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.CaseID == "" {
		writeJSONError(w, http.StatusBadRequest, "case_id is required")
		return req, false
	}
	return req, true
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInferenceRequest(w, r)
	if !ok {
		return
	}
	result, err := s.orch.Explain(r.Context(), req.CaseID)
	s.writeInferenceResult(w, result, err)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInferenceRequest(w, r)
	if !ok {
		return
	}
	result, err := s.orch.Score(r.Context(), req.CaseID)
	s.writeInferenceResult(w, result, err)
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInferenceRequest(w, r)
	if !ok {
		return
	}
	result, err := s.orch.AnalyzeCompliance(r.Context(), req.CaseID, req.UseDocuments)
	s.writeInferenceResult(w, result, err)
}

// writeInferenceResult maps orchestrator outcomes to HTTP. The result
// origin travels in a header so dashboards can label AI, cached, and
// rule-based answers without inspecting the body.
func (s *Server) writeInferenceResult(w http.ResponseWriter, result *models.InferenceResult, err error) {
	if err != nil {
		if errors.Is(err, cases.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "case not found")
			return
		}
		log.Printf("inference error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "inference failed")
		return
	}
	w.Header().Set("X-Riskline-Origin", string(result.Origin))
	if result.FallbackReason != "" {
		w.Header().Set("X-Riskline-Fallback-Reason", string(result.FallbackReason))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	meta, err := s.docs.Ingest(data, header.Filename)
	if err != nil {
		if errors.Is(err, docstore.ErrUnsupportedType) {
			writeJSONError(w, http.StatusUnsupportedMediaType, "unsupported document type, accepted: .txt, .md")
			return
		}
		log.Printf("document ingest error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "document ingest failed")
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.docs.List())
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.Delete(r.PathValue("id")); err != nil {
		writeJSONError(w, http.StatusNotFound, "document not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.BudgetStatus())
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeJSONError(w, http.StatusNotFound, "usage reporting disabled")
		return
	}
	summary, err := s.usage.Summary(r.Context())
	if err != nil {
		log.Printf("usage summary error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "usage query failed")
		return
	}
	recent, err := s.usage.Recent(r.Context(), 20)
	if err != nil {
		log.Printf("usage recent error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "usage query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": summary,
		"recent":  recent,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response encode error: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"riskline_error","code":%d}}`, message, code)
}
