package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voyago/travel-concierge/internal/http/handlers"
	httpmiddleware "github.com/voyago/travel-concierge/internal/http/middleware"
	"github.com/voyago/travel-concierge/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	TravelHandler      *handlers.TravelHandler
	WebchatHandler     *handlers.WebchatHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Requests per second per IP on the public turn endpoint; 0 disables.
	TurnRateLimit float64
	TurnRateBurst int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.TravelHandler.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Route("/travel", func(travel chi.Router) {
			if cfg.TurnRateLimit > 0 {
				travel.With(httpmiddleware.RateLimit(cfg.TurnRateLimit, cfg.TurnRateBurst)).
					Post("/turn", cfg.TravelHandler.Turn)
			} else {
				travel.Post("/turn", cfg.TravelHandler.Turn)
			}
			travel.Get("/session/{sessionID}", cfg.TravelHandler.GetSession)
		})

		if cfg.WebchatHandler != nil {
			public.Get("/webchat/ws", cfg.WebchatHandler.HandleWebSocket)
		}
	})

	// Admin endpoints (JWT protected)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Delete("/sessions/{sessionID}", cfg.TravelHandler.DeleteSession)
			admin.Get("/sessions/{sessionID}/transcript", cfg.TravelHandler.GetTranscript)
		})
	}

	return r
}
