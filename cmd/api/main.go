package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/config"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/admin"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/booking"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/feedback"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/location"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/reputation"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/swipe"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/trust"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/middleware"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/concerns"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/database"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/places"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/response"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/token"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Avalo Trust API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	tokenService := token.NewService(cfg.JWTSecret, cfg.ServiceTokenTTL)
	adminJWTService := admin.NewJWTService(cfg.JWTSecret, cfg.AdminTokenTTL)

	// ---------- Alert hub ----------
	alertHub := alert.NewHub(rdb)
	go alertHub.Run()
	alerts := alert.NewPublisher(rdb, alertHub)

	// ---------- Repositories ----------
	riskRepo := risk.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	swipeRepo := swipe.NewRepository(db)
	locationRepo := location.NewRepository(db)
	reputationRepo := reputation.NewRepository(db)
	adminRepo := admin.NewRepository(db)

	// ---------- Classifiers ----------
	placeClassifier := places.NewClient(places.Config{
		BaseURL: cfg.PlacesBaseURL,
		Token:   cfg.PlacesToken,
		Timeout: time.Duration(cfg.PlacesTimeoutSeconds) * time.Second,
	})

	var concernClassifier concerns.Classifier = concerns.NopClassifier{}
	if cfg.ConcernsEnabled {
		concernClassifier = concerns.NewClient(concerns.Config{
			BaseURL: cfg.ConcernsBaseURL,
			Token:   cfg.ConcernsToken,
		})
	}

	// ---------- Services ----------
	riskService := risk.NewService(riskRepo, alerts)
	reputationService := reputation.NewService(reputationRepo, rdb)
	bookingService := booking.NewService(bookingRepo, riskService, alerts)
	swipeService := swipe.NewService(swipeRepo, alerts)
	locationService := location.NewService(locationRepo, placeClassifier, riskService, alerts)
	feedbackService := feedback.NewService(riskService, reputationService, concernClassifier)
	trustService := trust.NewService(riskService, reputationService)
	adminService := admin.NewService(adminRepo)

	// ---------- Handlers ----------
	riskHandler := risk.NewHandler(riskService)
	bookingHandler := booking.NewHandler(bookingService)
	swipeHandler := swipe.NewHandler(swipeService)
	locationHandler := location.NewHandler(locationService)
	reputationHandler := reputation.NewHandler(reputationService)
	trustHandler := trust.NewHandler(trustService)
	feedbackHandler := feedback.NewHandler(feedbackService)

	alertHandler := alert.NewHandler(alertHub, admin.GetAdminID, cfg.AllowedOrigins)
	adminHandler := admin.NewHandler(adminService, adminJWTService, riskService, reputationService, bookingService, locationService, trustService, alertHandler)

	serviceAuth := middleware.ServiceAuth(tokenService)
	trustWrite := middleware.RequireScope(token.ScopeTrustWrite)
	locationCheck := middleware.RequireScope(token.ScopeLocation, token.ScopeTrustWrite)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/risk", riskHandler.Routes(serviceAuth, trustWrite))
		r.Mount("/bookings", bookingHandler.Routes(serviceAuth, trustWrite))
		r.Mount("/swipes", swipeHandler.Routes(serviceAuth, trustWrite))
		r.Mount("/locations", locationHandler.Routes(serviceAuth, locationCheck))
		r.Mount("/reputation", reputationHandler.Routes(serviceAuth, trustWrite))
		r.Mount("/trust", trustHandler.Routes(serviceAuth))
		r.Mount("/events", feedbackHandler.Routes(serviceAuth, trustWrite))
	})

	// Admin surface carries its own JWT auth, not service tokens
	r.Mount("/api/admin", adminHandler.Routes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	alertHub.Shutdown()

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
