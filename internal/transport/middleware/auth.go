package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/transport"
	"github.com/frahmantamala/admin-console/pkg/logger"
)

// Principal is the caller resolved from a valid access token.
type Principal struct {
	UserID   int64
	Username string
	TokenID  string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TokenVerifier turns a bearer token into a Principal.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (Principal, error)
}

var errMissingToken = internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeUnauthenticated)

// Authenticate rejects requests without a valid bearer token with 401.
func Authenticate(verifier TokenVerifier, h *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.ExtractTokenFromHeader(r)
			if token == "" {
				h.WriteError(w, errMissingToken)
				return
			}

			p, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				h.WriteError(w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), p)
			ctx = logger.With(ctx, "user_id", p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
