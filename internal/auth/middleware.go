package auth

import (
	"context"
	"net/http"
	"strings"

	svcErr "github.com/oggyb/pahilobhet/internal/errors"
	"github.com/oggyb/pahilobhet/internal/httpx"
)

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user_id"}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, userCtxKey, id)
}

// UserID returns the authenticated user id from ctx.
func UserID(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(userCtxKey).(uint64)
	return id, ok && id != 0
}

// MustUserID is UserID for handlers behind Require; it returns
// ErrNotAuthenticated when the principal is missing.
func MustUserID(ctx context.Context) (uint64, error) {
	id, ok := UserID(ctx)
	if !ok {
		return 0, svcErr.ErrNotAuthenticated
	}
	return id, nil
}

// Require rejects requests without a valid "Bearer <token>" header and
// stores the verified user id in the request context.
func Require(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				httpx.Error(w, r, svcErr.ErrNotAuthenticated)
				return
			}

			id, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				httpx.Error(w, r, svcErr.ErrNotAuthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}
