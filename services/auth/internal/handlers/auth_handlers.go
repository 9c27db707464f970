package handlers

import (
	"net/http"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/response"
	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
)

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := response.ReadJSON(w, r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	session, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    session.User,
		"token":   session.Token,
	})
}

func (h *Handlers) SendCode(w http.ResponseWriter, r *http.Request) {
	var req domain.SendCodeRequest
	if err := response.ReadJSON(w, r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	delivery, err := h.authService.SendCode(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, delivery)
}

func (h *Handlers) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCodeRequest
	if err := response.ReadJSON(w, r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	session, err := h.authService.VerifyCode(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    session.User,
		"token":   session.Token,
	})
}

// Validate echoes the current user behind a bearer token.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Validate(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"user":  user.ToUserInfo(),
		"valid": true,
	})
}
