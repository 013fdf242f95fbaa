package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/keysafehq/keysafe/pkg/identity"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, payload map[string]string) {
	respondWithJSON(w, code, payload)
}

// clientIP prefers the forwarded address set by a proxy
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

// subject returns the authenticated subject, or "anonymous" when the
// request carries no identity
func subject(r *http.Request) string {
	if id, ok := identity.Get(r.Context()); ok {
		return id.Subject
	}
	return "anonymous"
}
