package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS adds Access-Control headers for allowed origins and answers preflight requests.
// Credentials are only allowed when the origin list is explicit.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	normalized := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			allowAll = true
			break
		}
		if origin != "" {
			normalized = append(normalized, origin)
		}
	}
	if allowAll || len(normalized) == 0 {
		normalized = []string{"*"}
		allowAll = true
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   normalized,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !allowAll,
		MaxAge:           300,
	})
}
