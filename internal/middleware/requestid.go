package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/batonworks/baton/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID tags every request with a correlation id so audit entries and
// request logs can be tied together. A caller-supplied X-Request-ID is kept;
// otherwise a random id is minted. The id travels in the logger context and
// is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			var buf [16]byte
			_, _ = rand.Read(buf[:])
			id = hex.EncodeToString(buf[:])
		}

		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
