package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapml/internal/state"
)

// Server exposes the tracking API over HTTP, backed by the state store.
type Server struct {
	store        state.Store
	artifactRoot string
	env          string
	port         int
	logger       *slog.Logger
}

// ServerConfig holds configuration for the tracking server.
type ServerConfig struct {
	Store state.Store
	// ArtifactRoot is where uploaded artifacts are stored, one
	// directory per run.
	ArtifactRoot string
	Environment  string
	Port         int
	Logger       *slog.Logger
}

// NewServer creates a tracking server instance.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		store:        cfg.Store,
		artifactRoot: cfg.ArtifactRoot,
		env:          cfg.Environment,
		port:         cfg.Port,
		logger:       logger,
	}
}

// Routes builds the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleCreateRun)
			r.Get("/", s.handleListRuns)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Post("/params", s.handleLogParam)
				r.Post("/metrics", s.handleLogMetric)
				r.Post("/artifacts/{name}", s.handleUploadArtifact)
				r.Post("/end", s.handleEndRun)
			})
		})
	})

	return r
}

// Serve starts the tracking server and blocks until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting tracking server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down tracking server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, apiError{Error: err.Error()})
}

// runInfoFromState converts a stored run into its API representation.
func runInfoFromState(run *state.Run) RunInfo {
	status := StatusRunning
	switch run.Status {
	case state.RunStatusCompleted:
		status = string(OutcomeFinished)
	case state.RunStatusFailed:
		status = string(OutcomeFailed)
	}

	return RunInfo{
		RunID:      run.ID,
		Experiment: run.Experiment,
		Status:     status,
		StartTime:  run.StartedAt,
		EndTime:    run.CompletedAt,
		Error:      run.Error,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Experiment string `json:"experiment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	run, err := s.store.CreateRun(s.env, req.Experiment)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("tracked run created", "run_id", run.ID, "experiment", run.Experiment)
	s.writeJSON(w, http.StatusCreated, runInfoFromState(run))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	infos := make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		infos = append(infos, runInfoFromState(run))
	}

	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	s.writeJSON(w, http.StatusOK, runInfoFromState(run))
}

func (s *Server) handleLogParam(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Key == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("param key is required"))
		return
	}

	if err := s.store.LogParam(runID, req.Key, req.Value); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogMetric(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	var req struct {
		Key   string  `json:"key"`
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Key == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("metric key is required"))
		return
	}

	if err := s.store.LogMetric(runID, req.Key, req.Value); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUploadArtifact(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid artifact name"))
		return
	}

	runDir := filepath.Join(s.artifactRoot, runID)
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to create artifact directory: %w", err))
		return
	}

	dest := filepath.Join(runDir, name)
	f, err := os.Create(dest)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to create artifact file: %w", err))
		return
	}
	defer f.Close()

	if _, err := io.Copy(f, r.Body); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to store artifact: %w", err))
		return
	}

	if err := s.store.LogArtifact(runID, name, dest); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("artifact stored", "run_id", runID, "name", name, "path", dest)
	s.writeJSON(w, http.StatusCreated, map[string]string{"name": name, "path": dest})
}

func (s *Server) handleEndRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	var req struct {
		Status RunOutcome `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	status := state.RunStatusCompleted
	var errMsg string
	switch req.Status {
	case OutcomeFinished:
	case OutcomeFailed:
		status = state.RunStatusFailed
		errMsg = "tracked run failed"
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid run status %q", req.Status))
		return
	}

	if err := s.store.CompleteRun(runID, status, errMsg); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	run, err := s.store.GetRun(runID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, runInfoFromState(run))
}
