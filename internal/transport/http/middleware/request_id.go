package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"kepayroll/internal/requestctx"
)

const maxRequestIDLength = 128

// RequestID reuses a sane inbound X-Request-ID or mints a UUID, and stores a
// logger tagged with it on the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > maxRequestIDLength {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.WithRequestID(r.Context(), reqID)
		ctx = requestctx.WithLogger(ctx, requestctx.Logger(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
