package middleware

import (
	"net/http"
	"strings"
)

const guestSessionHeader = "X-Guest-Session"

// GuestSession lifts the client-generated guest session id into the request
// context. The id keys the redis-backed guest cart; there is nothing to
// validate beyond it being present.
func GuestSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(guestSessionHeader))
			if sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}
