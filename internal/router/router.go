package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-travel-planner/internal/api/auth"
	"github.com/FACorreiaa/go-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-travel-planner/internal/api/planner"
)

// Config contains the handlers and middleware needed for the router setup.
type Config struct {
	AuthHandler            *auth.AuthHandler
	PlannerHandler         *planner.Handler
	GeocodeHandler         *geocode.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	OptionalAuthMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are applied before
// mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Public routes, no token required. Planning works anonymously; a
		// valid token simply attaches the itinerary to the caller.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)

			r.Get("/cities/search", cfg.GeocodeHandler.SearchCities)
			r.Get("/itineraries/{itineraryID}", cfg.PlannerHandler.GetItinerary)
		})

		r.Group(func(r chi.Router) {
			r.Use(cfg.OptionalAuthMiddleware)
			r.Post("/plan-trip", cfg.PlannerHandler.PlanTrip)
			r.Delete("/itineraries/{itineraryID}", cfg.PlannerHandler.DeleteItinerary)
		})

		// Protected routes.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/me", cfg.AuthHandler.Me)
			r.Get("/me/trips", cfg.PlannerHandler.ListMyTrips)
		})
	})

	return r
}
