package api

import (
	"net/http"
	"time"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/api/handlers"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/api/middleware"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/metrics"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/security"
	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig параметры маршрутизатора
type RouterConfig struct {
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	MetricsEndpoint    string
}

// SetupRouter настраивает маршрутизатор
func SetupRouter(
	syncHandler *handlers.SyncHandler,
	jwtManager *security.JWTManager,
	logger interfaces.LoggerPort,
	cfg RouterConfig,
) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	r.Method(http.MethodHead, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if cfg.MetricsEndpoint != "" {
		r.Handle(cfg.MetricsEndpoint, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(jwtManager, logger))
		r.Use(middleware.RateLimit(5, 10))

		r.With(middleware.RequirePermission(security.PermissionProfilesRead)).Get("/profiles", syncHandler.ListProfiles)

		r.Group(func(r chi.Router) {
			if cfg.RequestTimeout > 0 {
				r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
			}
			r.With(middleware.RequirePermission(security.PermissionSyncRun)).Post("/sync", syncHandler.RunSync)
		})
	})

	return r
}
