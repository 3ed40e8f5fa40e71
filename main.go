package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/FACorreiaa/go-travel-planner/app/db"
	appLogger "github.com/FACorreiaa/go-travel-planner/app/logger"
	appMiddleware "github.com/FACorreiaa/go-travel-planner/app/middleware"
	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/app/tracer"
	"github.com/FACorreiaa/go-travel-planner/config"
	"github.com/FACorreiaa/go-travel-planner/internal/api/auth"
	"github.com/FACorreiaa/go-travel-planner/internal/api/cost"
	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-travel-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-travel-planner/internal/api/places"
	"github.com/FACorreiaa/go-travel-planner/internal/api/planner"
	"github.com/FACorreiaa/go-travel-planner/internal/api/route"
	api "github.com/FACorreiaa/go-travel-planner/internal/router"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tracer.InitTracingAndMetrics()
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations *before* initializing the main pool
	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// Token validation in the middleware has to use the same key and audience
	// the auth service signs with.
	if cfg.JWT.SecretKey != "" {
		appMiddleware.JwtSecretKey = []byte(cfg.JWT.SecretKey)
	}
	if cfg.JWT.Audience != "" {
		appMiddleware.ExpectedAudience = cfg.JWT.Audience
	}

	// --- Dependency Injection ---
	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, &cfg, logger)
	authHandler := auth.NewAuthHandler(authService, logger)

	geocoder := geocode.NewServiceImpl(
		cfg.Providers.NominatimBaseURL,
		os.Getenv("NOMINATIM_EMAIL"),
		cfg.Providers.Timeout,
		logger,
	)

	placesService := places.NewServiceImpl(places.Options{
		OpenTripMapBaseURL:  cfg.Providers.OpenTripMapBaseURL,
		OpenTripMapKey:      os.Getenv("OPENTRIPMAP_API_KEY"),
		OverpassEndpoints:   cfg.Providers.OverpassEndpoints,
		GooglePlacesBaseURL: cfg.Providers.GooglePlacesBaseURL,
		GooglePlacesKey:     os.Getenv("GOOGLE_PLACES_API_KEY"),
		NominatimEmail:      os.Getenv("NOMINATIM_EMAIL"),
		Timeout:             cfg.Providers.Timeout,
		Region: types.BoundingBox{
			MinLat: cfg.Planner.Region.MinLat,
			MaxLat: cfg.Planner.Region.MaxLat,
			MinLon: cfg.Planner.Region.MinLon,
			MaxLon: cfg.Planner.Region.MaxLon,
		},
		RegionCountryCode: cfg.Planner.RegionCountryCode,
	}, geocoder, logger)

	routeService := route.NewServiceImpl(
		cfg.Providers.OpenRouteServiceURL,
		os.Getenv("OPENROUTESERVICE_API_KEY"),
		cfg.Providers.Timeout,
		cfg.Planner.RouteCacheTTL,
		logger,
	)

	costService := cost.NewEstimator(cfg.Planner.DefaultCurrency, cfg.Planner.OccupancyPerRoom)

	// A missing Gemini key is not fatal; the composer falls back to its
	// deterministic template when no generator is available.
	var generator itinerary.PlanGenerator
	aiClient, err := generativeAI.NewAIClient(ctx)
	if err != nil {
		logger.Warn("Gemini client unavailable, itineraries will use the template plan", slog.Any("error", err))
	} else {
		generator = itinerary.NewGeminiGenerator(aiClient)
	}
	composer := itinerary.NewServiceImpl(generator, logger)

	plannerRepo := planner.NewPostgresPlannerRepository(pool, logger)
	plannerService := planner.NewServiceImpl(geocoder, placesService, routeService, costService, composer, plannerRepo,
		planner.Options{
			DefaultCurrency:        cfg.Planner.DefaultCurrency,
			TrainMaxDistanceKm:     cfg.Planner.TrainMaxDistanceKm,
			GroundRouteThresholdKm: cfg.Planner.GroundRouteThresholdKm,
			MaxAttractions:         cfg.Planner.MaxAttractions,
			MaxHotels:              cfg.Planner.MaxHotels,
		}, logger)
	plannerHandler := planner.NewPlannerHandler(plannerService, logger)

	geocodeHandler := geocode.NewGeocodeHandler(geocoder, logger)

	// --- Router Setup ---
	mainRouter := api.SetupRouter(&api.Config{
		AuthHandler:            authHandler,
		PlannerHandler:         plannerHandler,
		GeocodeHandler:         geocodeHandler,
		AuthenticateMiddleware: appMiddleware.Authenticate,
		OptionalAuthMiddleware: appMiddleware.OptionalAuthenticate,
	})

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger(mode string) *slog.Logger {
	var logger *slog.Logger

	if mode == "development" || mode == "" {
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
