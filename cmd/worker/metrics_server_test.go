package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-notifier/internal/usecase/notify"
)

type fakeBreakers []notify.BreakerStatus

func (f fakeBreakers) BreakerStates() []notify.BreakerStatus { return f }

func TestDestinationHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		states   fakeBreakers
		wantCode int
		healthy  bool
	}{
		{"no breakers yet", fakeBreakers{}, http.StatusOK, true},
		{"all closed", fakeBreakers{{DestinationID: 1, State: "closed"}, {DestinationID: 2, State: "closed"}}, http.StatusOK, true},
		{"half-open is probing", fakeBreakers{{DestinationID: 1, State: "half-open"}}, http.StatusOK, true},
		{"one open", fakeBreakers{{DestinationID: 1, State: "closed"}, {DestinationID: 2, State: "open"}}, http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			destinationHealthHandler(tt.states)(rr, httptest.NewRequest(http.MethodGet, "/health/destinations", nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body DestinationHealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.healthy, body.Healthy)
			assert.Len(t, body.Destinations, len(tt.states))
		})
	}
}
