package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/interfaces"
	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/utils/apperr"
)

// Server is the reference incidence API server. It serves the same REST
// contract the browser client consumed, backed by a repository that
// stands in for the external persistence and scoring service.
type Server struct {
	*http.Server
	router   chi.Router
	repo     interfaces.Repository
	tokens   *TokenIssuer
	validate *validator.Validate
}

// NewServer creates a new HTTP server
func NewServer(ctx context.Context, addr string, repo interfaces.Repository, tokens *TokenIssuer) *Server {
	router := chi.NewRouter()

	s := &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router:   router,
		repo:     repo,
		tokens:   tokens,
		validate: validator.New(),
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)
	router.Post("/auth/login", s.handleLogin)

	// Everything below requires a bearer credential
	router.Group(func(r chi.Router) {
		r.Use(s.RequireAuth)

		r.Route("/periods", func(r chi.Router) {
			r.Get("/", s.handleListPeriods)
			r.With(RequireRole(adminRoles...)).Post("/", s.handleCreatePeriod)
			r.With(RequireRole(adminRoles...)).Patch("/{id}", s.handleClosePeriod)
		})

		r.Route("/severities", func(r chi.Router) {
			r.Get("/", s.handleListSeverities)
			r.With(RequireRole(adminRoles...)).Post("/", s.handleCreateSeverity)
		})

		r.Route("/common-incidences", func(r chi.Router) {
			r.Get("/", s.handleListCommonIncidences)
			r.With(RequireRole(adminRoles...)).Post("/", s.handleCreateCommonIncidence)
			r.With(RequireRole(adminRoles...)).Patch("/{id}", s.handleUpdateCommonIncidence)
		})

		r.Route("/incidences", func(r chi.Router) {
			r.With(RequireRole(adminRoles...)).Post("/", s.handleCreateIncidence)
			r.Get("/{id}", s.handleGetIncidence)
			r.With(RequireRole(adminRoles...)).Patch("/{id}", s.handleResolveIncidence)
			r.With(RequireRole(adminRoles...)).Delete("/{id}", s.handleDeleteIncidence)
			r.Patch("/comment/{id}", s.handleAddComment)
			r.With(RequireRole(adminRoles...)).Post("/images/{id}", s.handleUploadImage)
			r.Get("/user/{userID}/{periodID}", s.handleListUserIncidences)
			r.With(RequireRole(adminRoles...)).Get("/admin/{adminID}", s.handleListPending)
		})

		r.Get("/scores/user/{userID}", s.handleListUserScores)

		r.Route("/users", func(r chi.Router) {
			r.With(RequireRole(adminRoles...)).Get("/", s.handleListUsers)
			r.Get("/{id}", s.handleGetUser)
		})
	})

	return s
}

// Router exposes the handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "demerit",
	}); err != nil {
		apperr.Handle(r.Context(), err)
	}
}

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		apperr.Handle(r.Context(), err)
	}
}

// writeError maps a domain error onto an HTTP status and JSON body
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrAuthRequired), errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrIncidenceNotFound),
		errors.Is(err, model.ErrPeriodNotFound),
		errors.Is(err, model.ErrSeverityNotFound),
		errors.Is(err, model.ErrTemplateNotFound),
		errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyResolved),
		errors.Is(err, model.ErrAlreadyCommented),
		errors.Is(err, model.ErrNotResolved),
		errors.Is(err, model.ErrNotCounting),
		errors.Is(err, model.ErrPeriodAlreadyOpen),
		errors.Is(err, model.ErrPeriodClosed),
		errors.Is(err, model.ErrNoOpenPeriod),
		errors.Is(err, model.ErrSeverityExists):
		status = http.StatusConflict
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var message string
	if goErr := goerr.Unwrap(err); goErr != nil {
		message = goErr.Error()
	} else {
		message = err.Error()
	}
	if encErr := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); encErr != nil {
		apperr.Handle(r.Context(), encErr)
	}
}

// writeBadRequest reports a request decoding or validation failure
func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if encErr := json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	}); encErr != nil {
		apperr.Handle(r.Context(), encErr)
	}
}
