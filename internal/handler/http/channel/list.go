package channel

import (
	"net/http"

	"channel-notifier/internal/handler/http/pathutil"
	"channel-notifier/internal/handler/http/respond"
	chUC "channel-notifier/internal/usecase/channel"
)

type ListHandler struct{ Svc *chUC.Service }

// ServeHTTP lists all channels, or those of one destination with ?destination_id=N.
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var filter *int64
	if raw := r.URL.Query().Get("destination_id"); raw != "" {
		id, err := pathutil.ParseID(raw)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, errInvalidDestinationID)
			return
		}
		filter = &id
	}

	list, err := h.Svc.List(r.Context(), filter)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, c := range list {
		out = append(out, toDTO(c))
	}
	respond.JSON(w, http.StatusOK, out)
}
