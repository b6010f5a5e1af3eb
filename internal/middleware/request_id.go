package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID tags each request with an ID so log lines from the gate
// checks and event writes of one call can be correlated. An ID supplied
// by the caller (service-to-service hops forward theirs) is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		// Written back onto the request so Logger picks it up after the
		// handler runs.
		r.Header.Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)
	})
}
