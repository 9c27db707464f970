package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/cache"
	"github.com/diagnosis/eventdesk/pkg/logger"
	mw "github.com/diagnosis/eventdesk/pkg/middleware"
	"github.com/diagnosis/eventdesk/pkg/response"
	"github.com/diagnosis/eventdesk/services/events/internal/domain"
	"github.com/diagnosis/eventdesk/services/events/internal/service"
)

// IdempotencyTTL is how long a register response is replayed for.
const IdempotencyTTL = 24 * time.Hour

type Handlers struct {
	eventService        service.EventService
	registrationService service.RegistrationService
	authn               *auth.Authenticator
	idempotency         func(http.Handler) http.Handler
}

func New(eventService service.EventService, registrationService service.RegistrationService, authn *auth.Authenticator, replay cache.Cache) *Handlers {
	return &Handlers{
		eventService:        eventService,
		registrationService: registrationService,
		authn:               authn,
		idempotency:         mw.Idempotency(replay, IdempotencyTTL),
	}
}

// Routes mounts the event and registration endpoints under /events.
func (h *Handlers) Routes(r chi.Router) {
	requireAuth := h.authn.RequireAuth
	optionalAuth := h.authn.OptionalAuth

	r.Route("/events", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.ListEvents)
		r.With(requireAuth, auth.Require(auth.ActionEventCreate)).Post("/", h.CreateEvent)

		r.Route("/{id}", func(r chi.Router) {
			r.With(optionalAuth).Get("/", h.GetEvent)
			r.With(requireAuth, auth.Require(auth.ActionEventUpdate)).Put("/", h.UpdateEvent)
			r.With(requireAuth, auth.Require(auth.ActionEventDelete)).Delete("/", h.DeleteEvent)

			r.With(optionalAuth, h.idempotency).Post("/register", h.Register)
			r.With(requireAuth).Delete("/unregister", h.Unregister)
			r.With(requireAuth).Get("/registration/{userId}", h.GetRegistration)
			r.With(requireAuth).Put("/registration/{userId}", h.UpdateRegistration)
			r.With(requireAuth, auth.Require(auth.ActionRegistrationManage)).Patch("/manage/{registrationId}", h.SetRegistrationStatus)
			r.With(requireAuth, auth.Require(auth.ActionRegistrationRoster)).Get("/registrations", h.ListRegistrations)
		})
	})
}

// writeServiceError maps service errors onto HTTP responses. Unknown errors
// are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		response.WriteErrorWithDetails(w, http.StatusBadRequest, ve.Message, response.CodeInvalidInput, ve.Fields)
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrForbidden):
		auth.WriteAuthError(w, err)
	case errors.Is(err, domain.ErrEventNotFound):
		response.NotFound(w, "Event not found")
	case errors.Is(err, domain.ErrRegistrationNotFound):
		response.NotFound(w, "Registration not found")
	case errors.Is(err, domain.ErrEventInactive):
		response.WriteError(w, http.StatusBadRequest, "Event is not active", response.CodeEventInactive)
	case errors.Is(err, domain.ErrEventPast):
		response.WriteError(w, http.StatusBadRequest, "Event has already ended", response.CodeEventPast)
	case errors.Is(err, domain.ErrEventFull):
		response.Conflict(w, "Event is full", response.CodeEventFull)
	case errors.Is(err, domain.ErrAlreadyRegistered):
		response.Conflict(w, "Already registered for this event", response.CodeAlreadyRegistered)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w)
	}
}
