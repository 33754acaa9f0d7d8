package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS wraps rs/cors configured from a comma-separated origin list
// (typically FRONTEND_URL). An empty list falls back to the local
// development origin.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	origins := parseOrigins(frontendURL)
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}

func parseOrigins(frontendURL string) []string {
	origins := []string{"http://localhost:3000"}
	for _, origin := range strings.Split(frontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		exists := false
		for _, existing := range origins {
			if existing == trimmed {
				exists = true
				break
			}
		}
		if !exists {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
