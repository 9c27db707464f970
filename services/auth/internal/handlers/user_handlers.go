package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/response"
	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
)

// ListUsers returns every user, newest first.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	infos := make([]*domain.UserInfo, len(users))
	for i := range users {
		infos[i] = users[i].ToUserInfo()
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"users": infos})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := response.ReadJSON(w, r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	user, err := h.userService.CreateUser(r.Context(), &req, auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    user.ToUserInfo(),
	})
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if err := response.ReadJSON(w, r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), chi.URLParam(r, "id"), &req, auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"user": user.ToUserInfo()})
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteUser(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// UpdateProfile lets a user edit their own name and e-mail.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileRequest
	if err := response.ReadJSON(w, r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), &req, auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"user": user.ToUserInfo()})
}
