package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dom/notely/internal/api/response"
	"github.com/dom/notely/internal/token"
	"go.uber.org/zap"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// TokenValidator verifies a bearer token and returns the identity it carries.
type TokenValidator interface {
	ValidateToken(tokenString string) (token.Identity, error)
}

// Auth rejects the request with 401 unless it carries a valid bearer token.
// Handlers behind it can rely on GetIdentity.
func Auth(validator TokenValidator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Warn("auth: missing or malformed authorization header",
					zap.String("path", r.URL.Path))
				response.Error(w, http.StatusUnauthorized, "Unauthorized: Token missing or malformed")
				return
			}

			identity, err := validator.ValidateToken(tokenString)
			if err != nil {
				log.Warn("auth: token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				response.Error(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" || strings.ContainsRune(tok, ' ') {
		return "", false
	}
	return tok, true
}

func WithIdentity(ctx context.Context, identity token.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func GetIdentity(ctx context.Context) (token.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(token.Identity)
	return identity, ok
}
