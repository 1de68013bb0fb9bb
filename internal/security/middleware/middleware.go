package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/internal/security/audit"
	"github.com/yourorg/jobtracker/internal/service"
)

type userContextKey struct{}
type requestIDContextKey struct{}

// RequireAuth resolves the request's bearer token to a user before any
// business logic runs. Missing, malformed, expired or otherwise invalid
// tokens — and tokens whose subject no longer resolves — all produce the
// same 401 with a WWW-Authenticate challenge.
func RequireAuth(authService *service.AuthService, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authService.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if auditLog != nil {
					auditLog.LogDenied(r.Context(), "invalid bearer token")
				}
				Unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Unauthorized writes the uniform 401 response used everywhere a bearer
// credential is rejected.
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + domain.ErrInvalidToken.Error() + `"}`))
}

// UserFromContext returns the authenticated user, or nil outside
// RequireAuth.
func UserFromContext(ctx context.Context) *domain.User {
	if u := ctx.Value(userContextKey{}); u != nil {
		return u.(*domain.User)
	}
	return nil
}

// RequestID attaches a request ID to the context and response headers and
// logs request completion.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := uuid.NewString()
			w.Header().Set("X-Request-ID", reqID)

			ctx := context.WithValue(r.Context(), requestIDContextKey{}, reqID)
			start := time.Now()

			next.ServeHTTP(w, r.WithContext(ctx))

			log.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration_ms", time.Since(start)),
			)
		})
	}
}

// RequestIDFromContext returns the request ID, or "" outside RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if id := ctx.Value(requestIDContextKey{}); id != nil {
		return id.(string)
	}
	return ""
}

// CORS honors the configured allowed origins and answers preflights.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else if len(allowedOrigins) > 0 {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigins[0])
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
