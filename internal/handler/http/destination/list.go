package destination

import (
	"net/http"

	"channel-notifier/internal/handler/http/respond"
	destUC "channel-notifier/internal/usecase/destination"
)

type ListHandler struct{ Svc *destUC.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, d := range list {
		out = append(out, toDTO(d))
	}
	respond.JSON(w, http.StatusOK, out)
}
