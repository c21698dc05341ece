// Package httptransport composes the public HTTP surface: the group
// engine routes plus health and metrics endpoints.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beredskap/internal/platform/redis"
)

// Registrar mounts a route group on the root router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the root router. Handlers bring their own middleware
// chains; only CORS and the unauthenticated endpoints live here.
func NewRouter(redisClient *redis.Client, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", handleHealth(redisClient))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, registrar := range registrars {
		registrar.Register(r)
	}
	return r
}

// handleHealth reports liveness. Redis is optional; when configured its
// reachability is included, but an unreachable cache does not fail the
// check since the engine serves without it.
func handleHealth(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := `"ok"`
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				status = `"degraded"`
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":` + status + `}`))
	}
}
