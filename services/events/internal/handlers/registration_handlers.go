package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/response"
	"github.com/diagnosis/eventdesk/services/events/internal/domain"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterInput
	if err := response.ReadJSON(w, r, &in); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	reg, err := h.registrationService.Register(r.Context(), chi.URLParam(r, "id"), &in, auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":      "Successfully registered for event",
		"registration": reg,
	})
}

type unregisterRequest struct {
	UserID string `json:"userId"`
}

// Unregister cancels the registration of the user named in the body, or of
// the caller when the body is empty.
func (h *Handlers) Unregister(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())

	var req unregisterRequest
	if r.ContentLength != 0 {
		if err := response.ReadJSON(w, r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
	}
	if req.UserID == "" && claims != nil {
		req.UserID = claims.UserID
	}

	if err := h.registrationService.Unregister(r.Context(), chi.URLParam(r, "id"), req.UserID, claims); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "Successfully unregistered from event"})
}

func (h *Handlers) GetRegistration(w http.ResponseWriter, r *http.Request) {
	state, err := h.registrationService.GetRegistration(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "userId"), auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, state)
}

func (h *Handlers) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	var patch domain.RegistrationPatch
	if err := response.ReadJSON(w, r, &patch); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	reg, err := h.registrationService.UpdateRegistration(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "userId"), &patch, auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Registration updated successfully",
		"registration": reg,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) SetRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := response.ReadJSON(w, r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	reg, err := h.registrationService.SetRegistrationStatus(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "registrationId"), req.Status, auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Registration status updated successfully",
		"registration": reg,
	})
}

func (h *Handlers) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrationService.ListRegistrations(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}
