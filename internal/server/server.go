// Package server exposes the JSON HTTP API: account registration and
// login, goal and entry CRUD, summary reads, and on-demand AI
// operations.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/strideapp/stride/internal/assist"
	"github.com/strideapp/stride/internal/auth"
	"github.com/strideapp/stride/internal/model"
	"github.com/strideapp/stride/internal/prompts"
	"github.com/strideapp/stride/internal/providers"
	"github.com/strideapp/stride/internal/repository"
)

const maxBodyBytes = 64 << 10

// SummaryRunner generates one summary on demand. Satisfied by
// *summary.Generator.
type SummaryRunner interface {
	Run(ctx context.Context, userID, summaryType string, anchor model.Date) (*model.Summary, error)
}

// GoalAssistant serves the per-goal AI endpoints. Satisfied by
// *assist.Service.
type GoalAssistant interface {
	InferGoalType(ctx context.Context, userID, title, description string) (string, error)
	SuggestGoalImprovements(ctx context.Context, userID, title, description, goalType string) ([]string, error)
}

type Server struct {
	addr      string
	logger    *slog.Logger
	auth      *auth.Service
	users     repository.UserRepository
	goals     repository.GoalRepository
	entries   repository.EntryRepository
	summaries repository.SummaryRepository
	generator SummaryRunner
	assistant GoalAssistant
}

func New(
	addr string,
	authService *auth.Service,
	users repository.UserRepository,
	goals repository.GoalRepository,
	entries repository.EntryRepository,
	summaries repository.SummaryRepository,
	generator SummaryRunner,
	assistant GoalAssistant,
	logger *slog.Logger,
) *Server {
	return &Server{
		addr:      addr,
		logger:    logger,
		auth:      authService,
		users:     users,
		goals:     goals,
		entries:   entries,
		summaries: summaries,
		generator: generator,
		assistant: assistant,
	}
}

// Handler builds the route table. Everything under /api/v1 except the
// auth endpoints requires a bearer token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/users/me", s.handleCurrentUser)
	api.HandleFunc("PUT /api/v1/users/api-keys", s.handleUpdateAPIKeys)

	api.HandleFunc("GET /api/v1/goals", s.handleListGoals)
	api.HandleFunc("POST /api/v1/goals", s.handleCreateGoal)
	api.HandleFunc("GET /api/v1/goals/{id}", s.handleGetGoal)
	api.HandleFunc("PATCH /api/v1/goals/{id}", s.handleUpdateGoal)
	api.HandleFunc("DELETE /api/v1/goals/{id}", s.handleDeleteGoal)
	api.HandleFunc("POST /api/v1/goals/{id}/complete", s.handleCompleteGoal)
	api.HandleFunc("POST /api/v1/goals/{id}/archive", s.handleArchiveGoal)

	api.HandleFunc("GET /api/v1/entries", s.handleListEntries)
	api.HandleFunc("PUT /api/v1/entries/{date}", s.handleUpsertEntry)
	api.HandleFunc("GET /api/v1/entries/{date}", s.handleGetEntry)
	api.HandleFunc("DELETE /api/v1/entries/{date}", s.handleDeleteEntry)

	api.HandleFunc("GET /api/v1/summaries", s.handleListSummaries)
	api.HandleFunc("GET /api/v1/summaries/today", s.handleTodaySummary)
	api.HandleFunc("GET /api/v1/summaries/{id}", s.handleGetSummary)
	api.HandleFunc("POST /api/v1/summaries/generate", s.handleGenerateSummary)

	api.HandleFunc("POST /api/v1/ai/infer-goal-type", s.handleInferGoalType)
	api.HandleFunc("POST /api/v1/ai/improve-goal", s.handleImproveGoal)

	mux.Handle("/api/v1/", s.auth.Middleware(api))
	return mux
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			s.logger.Error("encoding response", "error", err)
		}
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respond(w, status, map[string]apiError{"error": {Code: code, Message: message}})
}

// fail maps a domain error onto an HTTP status and a stable error
// code. Provider-internal detail never reaches the response body.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrEntryNotFound),
		errors.Is(err, repository.ErrSummaryNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		s.respondError(w, http.StatusNotFound, "not_found", "resource not found")

	case errors.Is(err, repository.ErrGoalMismatch):
		s.respondError(w, http.StatusUnprocessableEntity, "invalid_goal", "referenced goal not found")

	case errors.Is(err, assist.ErrTitleRequired):
		s.respondError(w, http.StatusUnprocessableEntity, "title_required", "goal title is required")

	case errors.Is(err, auth.ErrInvalidCredentials):
		s.respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")

	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		s.respondError(w, http.StatusUnprocessableEntity, "invalid_input", err.Error())

	case errors.Is(err, repository.ErrEmailTaken):
		s.respondError(w, http.StatusConflict, "email_taken", "email already registered")

	case errors.Is(err, providers.ErrUnavailable), errors.Is(err, providers.ErrNoProvider):
		s.logger.Warn("ai generation unavailable", "error", err)
		s.respondError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI generation is temporarily unavailable")

	case errors.Is(err, prompts.ErrUnknownTemplate):
		s.logger.Error("prompt template missing", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal", "internal server error")

	default:
		s.logger.Error("request failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// decode reads a JSON request body into dst, rejecting unknown fields.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	s.respondError(w, http.StatusBadRequest, "bad_request", message)
}

// pathDate parses the {date} segment of an entry route.
func pathDate(r *http.Request) (model.Date, error) {
	return model.ParseDate(r.PathValue("date"))
}
