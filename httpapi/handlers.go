package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/history"
	"github.com/isdmx/codeprobe/sandbox"
)

// Response messages
const (
	msgNoCode        = "No code provided"
	msgMissingFields = "Missing required fields: code and language"
	msgExecFailed    = "Execution failed"
)

type executeRequest struct {
	Code string `json:"code"`
}

type executeResponse struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

type analyzeRequest struct {
	Code     *string `json:"code"`
	Language *string `json:"language"`
}

type analyzeError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Server is running",
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"model":    s.analyzer.Model(),
		"provider": s.vendor,
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")

	var req executeRequest
	if err := decode(w, r, &req); err != nil {
		s.logger.Warn("Invalid execution request body", zap.Error(err))
		s.writeError(w, http.StatusBadRequest, msgNoCode)
		return
	}

	result, err := s.executor.Execute(r.Context(), sandbox.ExecuteRequest{
		Language: language,
		Code:     req.Code,
	})
	switch {
	case errors.Is(err, sandbox.ErrUnsupportedLanguage):
		s.writeError(w, http.StatusBadRequest, "Unsupported language: "+language)
		return
	case errors.Is(err, sandbox.ErrEmptyCode):
		s.writeError(w, http.StatusBadRequest, msgNoCode)
		return
	case err != nil:
		s.logger.Error("Code execution failed", zap.String("language", language), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, msgExecFailed)
		return
	}

	if errors.Is(result.Err(), sandbox.ErrExecutionTimeout) {
		s.writeError(w, http.StatusRequestTimeout, sandbox.TimeoutMessage)
		return
	}

	s.writeJSON(w, http.StatusOK, executeResponse{
		Output: result.Stdout,
		Error:  result.Stderr,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(w, r, &req); err != nil || req.Code == nil || req.Language == nil {
		s.writeJSON(w, http.StatusBadRequest, analyzeError{Error: msgMissingFields})
		return
	}

	code, language := *req.Code, *req.Language
	s.logger.Info("Analyzing code",
		zap.String("language", language),
		zap.Int("length", len(code)))

	result := s.analyzer.Analyze(r.Context(), code, language)

	if s.history != nil && result.Success && strings.TrimSpace(code) != "" {
		if _, err := s.history.Save(r.Context(), language, code, result); err != nil {
			s.logger.Warn("Failed to record analysis", zap.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "History is disabled")
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list history", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
