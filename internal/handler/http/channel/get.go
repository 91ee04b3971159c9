package channel

import (
	"errors"
	"net/http"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/handler/http/pathutil"
	"channel-notifier/internal/handler/http/respond"
	chUC "channel-notifier/internal/usecase/channel"
)

var (
	errInvalidBody          = errors.New("invalid request body")
	errInvalidDestinationID = errors.New("invalid destination_id")
)

type GetHandler struct{ Svc *chUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	ch, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(ch))
}

// statusFor maps use case errors to HTTP status codes.
// A missing destination is 404 while a provider miss is a 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chUC.ErrChannelNotFound),
		errors.Is(err, chUC.ErrDestinationNotFound):
		return http.StatusNotFound
	case errors.Is(err, chUC.ErrHandleAlreadyRegistered),
		errors.Is(err, chUC.ErrChannelAlreadyRegistered),
		errors.Is(err, chUC.ErrResolveFailed),
		errors.Is(err, entity.ErrValidationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
