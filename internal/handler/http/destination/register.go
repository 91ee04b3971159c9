package destination

import (
	"net/http"

	destUC "channel-notifier/internal/usecase/destination"
)

// Register registers all destination-related HTTP handlers with the given mux.
func Register(mux *http.ServeMux, svc *destUC.Service) {
	mux.Handle("GET    /api/v1/webhooks", ListHandler{svc})
	mux.Handle("GET    /api/v1/webhooks/{id}", GetHandler{svc})
	mux.Handle("POST   /api/v1/webhooks", CreateHandler{svc})
	mux.Handle("DELETE /api/v1/webhooks/{id}", DeleteHandler{svc})
}
