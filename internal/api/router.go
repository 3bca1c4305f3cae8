package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"github.com/socialchef/larder/internal/metrics"
	"github.com/socialchef/larder/internal/middleware"
	"github.com/socialchef/larder/internal/sentry"
	"go.opentelemetry.io/otel"
)

// NewRouter mounts the API behind tracing, metrics, error reporting and CORS.
// /health and /metrics are public and untraced.
func NewRouter(s *Server) http.Handler {
	serverName := s.cfg.ServiceName + "-server"

	r := chi.NewRouter()

	r.Use(otelchi.Middleware(serverName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	))

	metricCfg := otelchimetric.NewBaseConfig(serverName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(metrics.HTTPMiddleware)
	r.Use(sentry.HTTPMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.SessionHeader},
		AllowCredentials: true,
	}))

	r.Get("/health", s.HandleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(s.cfg), middleware.RequireAuth)

		r.Post("/api/recipes", s.HandleGenerateRecipes)
		r.Post("/api/recipes/jobs", s.HandleCreateJob)
		r.Get("/api/recipes/jobs/{id}", s.HandleJobStatus)
		r.Get("/api/history", s.HandleHistory)

		r.Route("/api/session", func(r chi.Router) {
			r.Get("/", s.HandleGetSession)
			r.Delete("/", s.HandleDeleteSession)
			r.Put("/input", s.HandleSetInput)
			r.Post("/generate", s.HandleSessionGenerate)
			r.Post("/back", s.HandleSessionBack)
		})
	})

	return r
}
