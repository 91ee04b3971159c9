package channel

import (
	"net/http"

	"channel-notifier/internal/handler/http/pathutil"
	"channel-notifier/internal/handler/http/respond"
	chUC "channel-notifier/internal/usecase/channel"
)

type DeleteHandler struct{ Svc *chUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
