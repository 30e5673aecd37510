package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// ModeAPIKey enables key checking.
const ModeAPIKey = "apikey"

type errorResponse struct {
	Error string `json:"error"`
}

// APIKey returns middleware that enforces API key authentication.
//
// header is matched case-insensitively, as net/http canonicalises header names.
func APIKey(mode, header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if mode != ModeAPIKey || key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if got == "" {
				deny(w, r, "missing api key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				deny(w, r, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, msg string) {
	slog.Debug("auth: request rejected", "path", r.URL.Path, "reason", msg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(errorResponse{Error: msg}) //nolint:errcheck
}
