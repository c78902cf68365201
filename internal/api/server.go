package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/newscheck/backend/internal/config"
	"github.com/newscheck/backend/internal/engine"
	"github.com/newscheck/backend/internal/storage"
)

// maxUploadBytes caps .txt uploads and JSON bodies.
const maxUploadBytes = 1 << 20

type Server struct {
	Engine *engine.Engine
	Logger *logrus.Entry
	Router *http.ServeMux
}

func NewServer(eng *engine.Engine, logger *logrus.Entry) *Server {
	s := &Server{
		Engine: eng,
		Logger: logger,
		Router: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/api/v1/analyze/text", s.handleAnalyzeText)
	s.Router.HandleFunc("/api/v1/analyze/url", s.handleAnalyzeURL)
	s.Router.HandleFunc("/api/v1/analyze/file", s.handleAnalyzeFile)
	s.Router.HandleFunc("/api/v1/submissions", s.handleListSubmissions)
	s.Router.HandleFunc("/api/v1/submissions/export", s.handleExport)
	s.Router.HandleFunc("/api/v1/submissions/{id}", s.handleSubmission)
	s.Router.HandleFunc("/api/v1/stats", s.handleStats)
	s.Router.HandleFunc("/api/v1/status", s.handleStatus)
	if s.Engine.Metrics != nil {
		s.Router.Handle("/metrics", s.Engine.Metrics.Handler())
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Infof("Starting API Server on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler returns the router wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.Router)
}

// Responses
type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Model     string `json:"model"`
	Analyses  int64  `json:"analyses"`
	LastError string `json:"last_error,omitempty"`
	Uptime    string `json:"uptime"`
}

// Handlers

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
		return
	}

	sub, err := s.Engine.AnalyzeText(r.Context(), req.Title, req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sub)
}

func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
		return
	}

	sub, err := s.Engine.AnalyzeURL(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sub)
}

func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid upload"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Field 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Error reading file"})
		return
	}

	sub, err := s.Engine.AnalyzeFile(r.Context(), header.Filename, r.FormValue("title"), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sub)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts, err := s.listOptions(r)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	page, err := s.Engine.Storage.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		sub, err := s.Engine.Storage.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, sub)
	case http.MethodDelete:
		if err := s.Engine.Storage.Delete(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts, err := s.listOptions(r)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	subs, err := s.Engine.Storage.Export(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	filename := fmt.Sprintf("fake_news_report_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := storage.WriteCSV(w, subs); err != nil {
		s.Logger.WithError(err).Error("Failed to write CSV export")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.Engine.Storage.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Engine.Snapshot()

	jsonResponse(w, http.StatusOK, StatusResponse{
		Model:     s.Engine.ModelState().String(),
		Analyses:  stats.Analyses,
		LastError: stats.LastError,
		Uptime:    time.Since(stats.StartTime).Round(time.Second).String(),
	})
}

func (s *Server) listOptions(r *http.Request) (storage.ListOptions, error) {
	q := r.URL.Query()
	opts := storage.ListOptions{
		Page:    1,
		PerPage: s.Engine.Config.Storage.DefaultPerPage,
		Result:  q.Get("result"),
		Source:  storage.SourceType(q.Get("source")),
		Search:  q.Get("q"),
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("invalid page %q", v)
		}
		opts.Page = n
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("invalid per_page %q", v)
		}
		opts.PerPage = min(n, s.Engine.Config.Storage.MaxPerPage)
	}
	if opts.Result != "" && !strings.EqualFold(opts.Result, "FAKE") && !strings.EqualFold(opts.Result, "REAL") {
		return opts, fmt.Errorf("invalid result %q", opts.Result)
	}
	if opts.Source != "" && !opts.Source.Valid() {
		return opts, fmt.Errorf("invalid source %q", opts.Source)
	}
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, engine.ErrExtraction):
		jsonResponse(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		s.Logger.WithError(err).Error("Request failed")
		jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	})
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
