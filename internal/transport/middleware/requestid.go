package middleware

import (
	"net/http"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/pkg/logger"

	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// RequestID keeps the caller's X-Request-ID or assigns one, and echoes it on
// the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		ctx := internal.ContextWithRequestID(r.Context(), reqID)
		ctx = logger.With(ctx, "request_id", reqID)

		w.Header().Set(HeaderRequestID, reqID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
