package channel

import (
	"net/http"

	"channel-notifier/internal/handler/http/middleware"
	chUC "channel-notifier/internal/usecase/channel"

	"golang.org/x/time/rate"
)

// Register registers all channel-related HTTP handlers with the given mux.
// Registrations spend provider quota; when limiter is non-nil they share
// its token bucket.
func Register(mux *http.ServeMux, svc *chUC.Service, limiter *rate.Limiter) {
	var register http.Handler = RegisterHandler{svc}
	if limiter != nil {
		register = middleware.RateLimit(limiter)(register)
	}

	mux.Handle("GET    /api/v1/channels", ListHandler{svc})
	mux.Handle("GET    /api/v1/channels/{id}", GetHandler{svc})
	mux.Handle("POST   /api/v1/channels", register)
	mux.Handle("DELETE /api/v1/channels/{id}", DeleteHandler{svc})
}
