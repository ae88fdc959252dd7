package middleware

import (
	"github.com/go-chi/cors"

	"github.com/heartmarshall/sentence-lab/internal/config"
)

// CORS returns middleware that handles Cross-Origin Resource Sharing for
// the configured origins. Preflight requests are answered with 204 and
// never reach the wrapped handler. Credentials are never allowed together
// with a wildcard origin.
func CORS(cfg config.CORSConfig) Middleware {
	origins := cfg.Origins()
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	allowCreds := cfg.AllowCredentials
	for _, o := range origins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   cfg.Methods(),
		AllowedHeaders:   cfg.Headers(),
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: allowCreds,
		MaxAge:           cfg.MaxAge,
	})
}
