package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/pkg/response"
	"github.com/diagnosis/eventdesk/services/gateway/internal/proxy"
)

// Handlers maps the public /v1 surface onto the backend services.
type Handlers struct {
	authProxy   *proxy.ServiceProxy
	eventsProxy *proxy.ServiceProxy
}

func New(authProxy, eventsProxy *proxy.ServiceProxy) *Handlers {
	return &Handlers{
		authProxy:   authProxy,
		eventsProxy: eventsProxy,
	}
}

func (h *Handlers) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			fwd := h.forward(h.authProxy, "/v1/auth")
			r.Post("/login", fwd)
			r.Post("/send-code", fwd)
			r.Post("/verify-code", fwd)
			r.Get("/validate", fwd)
		})

		users := h.forward(h.authProxy, "/v1")
		r.Handle("/users", users)
		r.Handle("/users/*", users)

		events := h.forward(h.eventsProxy, "/v1")
		r.Handle("/events", events)
		r.Handle("/events/*", events)
	})
}

// forward strips prefix from the request path and relays the request to
// target, streaming the response back unchanged.
func (h *Handlers) forward(target *proxy.ServiceProxy, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, prefix)
		if path == "" {
			path = "/"
		}
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		var body io.Reader
		if r.ContentLength != 0 {
			body = r.Body
		}

		resp, err := target.ProxyRequest(r.Context(), r.Method, path, body, r.Header)
		if err != nil {
			logger.ErrorContext(r.Context(), "Service proxy error", "service", target.Name(), "path", path, "error", err)
			response.WriteError(w, http.StatusBadGateway, target.Name()+" service unavailable", response.CodeUnavailable)
			return
		}
		defer resp.Body.Close()

		proxy.CopyHeaders(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.ErrorContext(r.Context(), "Failed to copy response body", "service", target.Name(), "error", err)
		}
	}
}
