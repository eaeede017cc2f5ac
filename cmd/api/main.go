package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"road-risk-api/config"
	"road-risk-api/handlers"
	"road-risk-api/logging"
	"road-risk-api/middleware"
	"road-risk-api/models"
	"road-risk-api/risk"
	"road-risk-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "api"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql db handle")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if err := db.AutoMigrate(models.Migrated()...); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	// Redis is optional: without it estimates are neither cached nor broadcast.
	cache, err := services.NewCacheService(cfg.Redis, 3)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, caching and live feed disabled")
	}
	defer cache.Close()

	gateway := risk.NewGateway(cfg.Model.ArtifactPath, services.InstrumentedLoader(risk.LoadArtifact))
	engine := risk.NewEngine(gateway)
	vocab := risk.DefaultVocabulary()
	warmUp(engine, vocab, gateway.Path())

	authService := services.NewAuthService(cfg.JWT)
	estimates := services.NewEstimateService(engine, cache, services.NewGormHistory(db), cfg.Cache.EstimateTTL)

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.SetupCORS(cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "UP",
			"message":      "MADly Safe risk API is running",
			"model_loaded": gateway.Loaded(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/estimates", handlers.EstimateFeed(cache, authService))

	authHandler := handlers.NewAuthHandler(db, authService)
	estimateHandler := handlers.NewEstimateHandler(estimates, cfg.Server.Debug)
	historyHandler := handlers.NewHistoryHandler(estimates)
	gridHandler := handlers.NewGridHandler(db, cache, risk.Scenario{
		PersonType:  cfg.Grid.PersonType,
		VehicleType: cfg.Grid.VehicleType,
		AgeRange:    cfg.Grid.AgeRange,
		Sex:         cfg.Grid.Sex,
	})

	api := router.Group("/api/v1")
	{
		api.GET("/options", handlers.Options(vocab))
		api.POST("/estimate", middleware.OptionalAuth(authService), estimateHandler.Estimate)
		api.GET("/grid", gridHandler.GetDay)

		auth := api.Group("/auth")
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)

		api.GET("/estimates", middleware.RequireAuth(authService), historyHandler.List)
	}

	// Start server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// warmUp loads the artifact before the first request and reports offered
// values the model was never fitted on. A failure here is not fatal: the
// gateway retries on the next estimate.
func warmUp(engine *risk.Engine, vocab risk.Vocabulary, path string) {
	gaps, err := engine.VocabularyGaps(vocab)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("model artifact not loaded at startup")
		return
	}
	version, _ := engine.ModelVersion()
	log.Info().Str("path", path).Str("model_version", version).Msg("model artifact loaded")
	for _, g := range gaps {
		log.Warn().Str("column", g.Column).Str("value", g.Value).Msg("offered value unknown to model")
	}
}
