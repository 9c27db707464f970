package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/response"
	"github.com/diagnosis/eventdesk/services/events/internal/domain"
)

// ListEvents returns every event for managers and only active events for
// everyone else.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	viewer := auth.FromContext(r.Context())

	views, err := h.eventService.ListEvents(r.Context(), viewer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if !auth.HasRole(viewer, auth.RoleManager) {
		visible := make([]domain.EventView, 0, len(views))
		for _, v := range views {
			if v.IsActive {
				visible = append(visible, v)
			}
		}
		views = visible
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"events": views})
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	view, err := h.eventService.GetEvent(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"event": view})
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in domain.EventInput
	if err := response.ReadJSON(w, r, &in); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	e, err := h.eventService.CreateEvent(r.Context(), &in, auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{"event": e})
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in domain.EventInput
	if err := response.ReadJSON(w, r, &in); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	e, err := h.eventService.UpdateEvent(r.Context(), chi.URLParam(r, "id"), &in, auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"event": e})
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.eventService.DeleteEvent(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}
