package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/V4T54L/waste-watch/internal/domain"
)

const AuthorizationHeader = "Authorization"

// SessionResolver turns a bearer token into a session and answers the
// allowlist question for it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*domain.Session, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type contextKey int

const sessionContextKey contextKey = iota

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns the session stored by RequireAdmin.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*domain.Session)
	return s, ok && s != nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get(AuthorizationHeader)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAdmin is a middleware factory that admits only live sessions whose
// email is still on the admin allowlist. The session is stored in the request
// context for the handlers behind it.
func RequireAdmin(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				logger.Warn("bearer token missing from request", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: bearer token required", http.StatusUnauthorized)
				return
			}

			session, err := resolver.ResolveSession(r.Context(), token)
			if err != nil {
				logger.Error("failed to resolve session", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if session == nil {
				logger.Warn("invalid or expired session", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: invalid session", http.StatusUnauthorized)
				return
			}

			isAdmin, err := resolver.IsAdmin(r.Context(), session.Identity.Email)
			if err != nil {
				logger.Error("failed to check admin allowlist", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if !isAdmin {
				logger.Warn("session is not an admin", "email", session.Identity.Email)
				http.Error(w, "Forbidden: not an admin", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
