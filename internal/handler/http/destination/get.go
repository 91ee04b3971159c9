package destination

import (
	"errors"
	"net/http"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/handler/http/pathutil"
	"channel-notifier/internal/handler/http/respond"
	destUC "channel-notifier/internal/usecase/destination"
)

type GetHandler struct{ Svc *destUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	dest, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(dest))
}

// statusFor maps use case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, destUC.ErrDestinationNotFound):
		return http.StatusNotFound
	case errors.Is(err, destUC.ErrDestinationInUse),
		errors.Is(err, entity.ErrValidationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
