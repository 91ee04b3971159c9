package middleware

import "net/http"

// apiPolicy forbids every fetch and framing. The API only ever serves JSON,
// so no response needs to load anything.
const apiPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// SecurityHeaders sets Content-Security-Policy and X-Content-Type-Options on
// every response. With reportOnly the policy is sent as
// Content-Security-Policy-Report-Only instead.
func SecurityHeaders(reportOnly bool) func(http.Handler) http.Handler {
	header := "Content-Security-Policy"
	if reportOnly {
		header = "Content-Security-Policy-Report-Only"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(header, apiPolicy)
			h.Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	}
}
