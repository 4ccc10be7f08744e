package api

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"new-launcher/config"
)

// requireToken rejects requests that do not carry the server token. With no
// token configured every request passes, as Jupyter does with an empty token.
func requireToken(auth config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !auth.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validToken(auth, requestToken(r)) {
				log.Printf("rejected unauthenticated %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestToken reads "Authorization: token <t>" (or Bearer), falling back to
// the token query parameter that browser WebSocket clients have to use.
func requestToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && (strings.EqualFold(scheme, "token") || strings.EqualFold(scheme, "bearer")) {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

func validToken(auth config.AuthConfig, token string) bool {
	if token == "" {
		return false
	}
	if auth.TokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(auth.TokenHash), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(auth.Token)) == 1
}
