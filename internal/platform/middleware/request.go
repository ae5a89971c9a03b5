package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"idregistry/pkg/requestcontext"
)

// RequestMetadata stamps each request with a correlation id and the request
// time. All time-based registry predicates derive from this single
// timestamp, so one request sees one consistent clock.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
