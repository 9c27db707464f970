package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/pkg/response"
	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
	"github.com/diagnosis/eventdesk/services/auth/internal/service"
)

// RateLimiter counts hits per key; repository.RateLimitRepository
// implements it.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// CodeLimit throttles send-code requests per client IP.
type CodeLimit struct {
	Requests int
	Window   time.Duration
}

type Handlers struct {
	authService service.AuthService
	userService service.UserService
	authn       *auth.Authenticator
	limiter     RateLimiter
	codeLimit   CodeLimit
}

func New(
	authService service.AuthService,
	userService service.UserService,
	authn *auth.Authenticator,
	limiter RateLimiter,
	codeLimit CodeLimit,
) *Handlers {
	return &Handlers{
		authService: authService,
		userService: userService,
		authn:       authn,
		limiter:     limiter,
		codeLimit:   codeLimit,
	}
}

// Routes mounts the sign-in endpoints at the root and the user directory
// under /users.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/login", h.Login)
	r.With(h.CodeRateLimit("send_code")).Post("/send-code", h.SendCode)
	r.With(h.CodeRateLimit("verify_code")).Post("/verify-code", h.VerifyCode)
	r.With(h.authn.RequireAuth).Get("/validate", h.Validate)

	r.Route("/users", func(r chi.Router) {
		r.Use(h.authn.RequireAuth)
		r.Put("/profile", h.UpdateProfile)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require(auth.ActionUserManage))
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})
	})
}

// CodeRateLimit rejects a client IP that calls the named code endpoint too
// often. Each endpoint has its own budget. Limiter failures let the request
// through.
func (h *Handlers) CodeRateLimit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := endpoint + ":" + getClientIP(r)

			allowed, err := h.limiter.Allow(r.Context(), key, h.codeLimit.Requests, h.codeLimit.Window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "endpoint", endpoint, "error", err)
			} else if !allowed {
				response.RateLimit(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		response.WriteErrorWithDetails(w, http.StatusBadRequest, ve.Message, response.CodeInvalidInput, ve.Fields)
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrForbidden):
		auth.WriteAuthError(w, err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid email or password")
	case errors.Is(err, domain.ErrInvalidCode):
		response.WriteError(w, http.StatusBadRequest, "Invalid or expired verification code", response.CodeInvalidCode)
	case errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, domain.ErrEmailTaken):
		response.Conflict(w, "A user with this email already exists", response.CodeEmailExists)
	case errors.Is(err, domain.ErrLastManager):
		response.Conflict(w, "Cannot delete the last manager account", response.CodeLastManager)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w)
	}
}
