package channel

import (
	"encoding/json"
	"net/http"

	"channel-notifier/internal/handler/http/respond"
	chUC "channel-notifier/internal/usecase/channel"
)

type RegisterHandler struct{ Svc *chUC.Service }

func (h RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DestinationID  int64  `json:"destination_id"`
		ExternalHandle string `json:"external_handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	ch, err := h.Svc.Register(r.Context(), chUC.RegisterInput{
		DestinationID: req.DestinationID,
		Handle:        req.ExternalHandle,
	})
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(ch))
}
