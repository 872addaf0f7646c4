package middleware

import (
	"context"
	"net/http"

	"darshan/pkg/logger"
)

const OwnerIDKey contextKey = "owner_id"

// HeaderUserID carries the caller identity verified by the upstream
// gateway. Authentication itself is outside this service.
const HeaderUserID = "X-User-ID"

// Identity extracts the caller id from the gateway header and stores it
// in the request context. Requests without an identity are rejected
// before reaching any handler.
func Identity(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := r.Header.Get(HeaderUserID)
			if ownerID == "" {
				log.Warn("Missing caller identity header",
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Missing ` + HeaderUserID + ` header"}`))
				return
			}

			ctx := context.WithValue(r.Context(), OwnerIDKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerID returns the caller id stored by Identity, or "" when absent.
func OwnerID(ctx context.Context) string {
	if v := ctx.Value(OwnerIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
