package httpapi

import (
	"net/http"

	"github.com/smartfolio/portfolio-cache/internal/store"
)

const apiKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware rejecting requests without a valid API key.
func APIKeyAuth(keys store.APIKeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing "+apiKeyHeader)
				return
			}
			ok, err := keys.IsValidAPIKey(r.Context(), key)
			if err != nil || !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
