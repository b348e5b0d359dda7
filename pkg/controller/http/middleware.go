package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

type ctxKey string

const claimsKey ctxKey = "claims"

var adminRoles = []types.Role{types.RoleAdmin, types.RoleSuperadmin}

// ClaimsFrom extracts the authenticated claims from the request context
func ClaimsFrom(ctx context.Context) (*model.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*model.Claims)
	return claims, ok
}

// RequireAuth verifies the bearer credential and stores its claims in
// the request context
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, r, goerr.Wrap(model.ErrAuthRequired, "missing bearer token"))
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			ctxlog.From(r.Context()).Debug("token verification failed", "error", err)
			writeError(w, r, goerr.Wrap(model.ErrAuthRequired, "invalid bearer token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireRole guards a route group behind a role allowlist
func RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				writeError(w, r, goerr.Wrap(model.ErrAuthRequired, "no claims in context"))
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, goerr.Wrap(model.ErrPermissionDenied, "role not allowed",
				goerr.V("role", claims.Role)))
		})
	}
}

// LoggingMiddleware creates a chi-compatible request logging middleware
func LoggingMiddleware(ctx context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Embed logger from the initial context into request context
			r = r.WithContext(ctxlog.With(r.Context(), ctxlog.From(ctx)))

			logger := ctxlog.From(r.Context())
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		})
	}
}
