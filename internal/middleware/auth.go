package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/account-service/internal/account"
	"github.com/hongminglow/account-service/internal/http/respond"
	"github.com/hongminglow/account-service/internal/logging"
)

type ctxKey int

const userIDKey ctxKey = iota

// TokenVerifier validates an access token and returns its user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// ActiveChecker rejects users that no longer exist or are disabled.
type ActiveChecker interface {
	ResolveActive(ctx context.Context, userID int64) error
}

// Bearer authenticates requests with an "Authorization: Bearer <token>" header and
// stores the user id in the request context. active may be nil to skip the account check.
func Bearer(tokens TokenVerifier, active ActiveChecker, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}
			userID, err := tokens.Verify(token)
			if err != nil {
				log.Debug(r.Context(), "token rejected", "error", err)
				unauthorized(w)
				return
			}
			if active != nil {
				if err := active.ResolveActive(r.Context(), userID); err != nil {
					if errors.Is(err, account.ErrUnauthorized) {
						unauthorized(w)
						return
					}
					log.Error(r.Context(), "resolve token user", "user_id", userID, "error", err)
					respond.Error(w, http.StatusInternalServerError, "internal server error")
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user id stored by Bearer.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	respond.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
}
