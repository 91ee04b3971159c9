package destination

import (
	"encoding/json"
	"errors"
	"net/http"

	"channel-notifier/internal/handler/http/respond"
	destUC "channel-notifier/internal/usecase/destination"
)

var errInvalidBody = errors.New("invalid request body")

type CreateHandler struct{ Svc *destUC.Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupingLabel string `json:"grouping_label"`
		DisplayLabel  string `json:"display_label"`
		EndpointURL   string `json:"endpoint_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	dest, err := h.Svc.Create(r.Context(), destUC.CreateInput{
		GroupingLabel: req.GroupingLabel,
		DisplayLabel:  req.DisplayLabel,
		EndpointURL:   req.EndpointURL,
	})
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(dest))
}
