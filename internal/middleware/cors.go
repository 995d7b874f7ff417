// Package middleware provides HTTP middleware for the Wizard Trials API.
package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	"github.com/ashureev/wizard-trials/internal/identity"
)

// CORS returns middleware that handles CORS headers. Credentials are only allowed
// when every origin is explicit, so a wildcard can never carry the player cookie.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", identity.TabHeaderName},
		ExposedHeaders:   []string{identity.TabHeaderName},
		AllowCredentials: !slices.Contains(allowedOrigins, "*"),
		MaxAge:           300,
	})
}
