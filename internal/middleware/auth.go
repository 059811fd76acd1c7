package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/fotoshare/gallery/internal/response"
)

// RequireToken returns middleware that checks the static gallery access
// token. Guests send it either as "Authorization: Bearer <token>" or as a
// ?token= query parameter (the form embedded in local-backend photo URLs).
//
// Token issuance and rotation live outside this service; by the time a
// storage operation runs the request is already known to carry the token.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokenMatches(r, token) {
				response.Unauthorized(w, "invalid or missing access token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenMatches(r *http.Request, token string) bool {
	presented := r.URL.Query().Get("token")
	if presented == "" {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			presented = parts[1]
		}
	}
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}
