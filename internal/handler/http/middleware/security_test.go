package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("enforced", func(t *testing.T) {
		rr := httptest.NewRecorder()
		SecurityHeaders(false)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil))

		assert.Equal(t, apiPolicy, rr.Header().Get("Content-Security-Policy"))
		assert.Empty(t, rr.Header().Get("Content-Security-Policy-Report-Only"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	})

	t.Run("report only", func(t *testing.T) {
		rr := httptest.NewRecorder()
		SecurityHeaders(true)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil))

		assert.Empty(t, rr.Header().Get("Content-Security-Policy"))
		assert.Equal(t, apiPolicy, rr.Header().Get("Content-Security-Policy-Report-Only"))
	})

	t.Run("set on errors too", func(t *testing.T) {
		rr := httptest.NewRecorder()
		fail := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		SecurityHeaders(false)(fail).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, apiPolicy, rr.Header().Get("Content-Security-Policy"))
	})
}
