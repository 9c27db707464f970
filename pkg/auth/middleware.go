package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/pkg/response"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// Authenticator validates bearer tokens issued by the auth service.
type Authenticator struct {
	secret string
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// Authenticate returns the claims of a valid token or ErrUnauthorized.
func (a *Authenticator) Authenticate(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := Parse(token, a.secret)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := response.BearerToken(r)
		if token == "" {
			response.Unauthorized(w, "Missing or invalid authorization header")
			return
		}
		claims, err := a.Authenticate(token)
		if err != nil {
			response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := a.Authenticate(response.BearerToken(r)); err == nil {
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// Require enforces a manager-level action for every route it wraps.
func Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Authorize(FromContext(r.Context()), action, ""); err != nil {
				WriteAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteAuthError maps ErrUnauthorized/ErrForbidden onto 401/403.
func WriteAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUnauthorized) {
		response.Unauthorized(w, "Authentication required")
		return
	}
	response.Forbidden(w, "Insufficient permissions")
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return logger.WithUserID(ctx, claims.UserID)
}

func FromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsKey).(*Claims); ok {
		return claims
	}
	return nil
}
