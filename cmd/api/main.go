package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/pkg/broker"
	"github.com/fekuna/omnipos-inventory-service/pkg/cache"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/postgres"

	catalogRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/catalog/repository"

	stockH "github.com/fekuna/omnipos-inventory-service/internal/stock/handler"
	stockListenerPkg "github.com/fekuna/omnipos-inventory-service/internal/stock/listener"
	stockRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-inventory-service/internal/stock/usecase"

	resH "github.com/fekuna/omnipos-inventory-service/internal/reservation/handler"
	resRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/reservation/repository"
	resSweeperPkg "github.com/fekuna/omnipos-inventory-service/internal/reservation/sweeper"
	resUCPkg "github.com/fekuna/omnipos-inventory-service/internal/reservation/usecase"

	fcH "github.com/fekuna/omnipos-inventory-service/internal/forecast/handler"
	fcRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/forecast/repository"
	fcUCPkg "github.com/fekuna/omnipos-inventory-service/internal/forecast/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Initialize Repositories
	catalogRepo := catalogRepoPkg.NewPGRepository(db)
	stockRepo := stockRepoPkg.NewPGRepository(db)
	resRepo := resRepoPkg.NewPGRepository(db)
	fcRepo := fcRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	stockUC := stockUCPkg.NewStockUseCase(stockRepo, catalogRepo, redisClient, cfg.Engine.LevelCacheTTL, appLogger)
	resUC := resUCPkg.NewReservationUseCase(resRepo, stockRepo, catalogRepo, redisClient, redisClient, resUCPkg.Options{
		LockTTL:     cfg.Engine.LockTTL,
		LockRetries: cfg.Engine.LockRetries,
	}, appLogger)
	fcUC := fcUCPkg.NewForecastUseCase(fcRepo, stockRepo, catalogRepo, fcUCPkg.Defaults{
		Threshold:       cfg.Engine.DefaultThreshold,
		RiskHorizonDays: cfg.Engine.RiskHorizonDays,
		MinConfidence:   cfg.Engine.MinConfidence,
	}, appLogger)

	// 8. Background workers: order listener + expiry sweeper
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderListener := stockListenerPkg.NewOrderListener(kafkaConsumer, stockUC, resUC, appLogger)
	go orderListener.Start(ctx)

	expirySweeper := resSweeperPkg.New(resUC, cfg.Engine.SweepInterval, appLogger)
	go expirySweeper.Start(ctx)

	// 9. Initialize Handlers
	stockHandler := stockH.NewStockHandler(stockUC, appLogger)
	resHandler := resH.NewReservationHandler(resUC, appLogger)
	fcHandler := fcH.NewForecastHandler(fcUC, appLogger)

	// 10. HTTP Server
	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerRoutes(router, stockHandler, resHandler, fcHandler)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func registerRoutes(r *gin.Engine, stockHandler *stockH.StockHandler, resHandler *resH.ReservationHandler, fcHandler *fcH.ForecastHandler) {
	v1 := r.Group("/api/v1")
	v1.Use(auth.Middleware())
	{
		v1.GET("/availability", stockHandler.GetAvailability)
		v1.GET("/movements", stockHandler.ListMovements)
		v1.POST("/adjustments", stockHandler.CreateAdjustment)

		reservations := v1.Group("/reservations")
		{
			reservations.POST("", resHandler.Reserve)
			reservations.GET("", resHandler.List)
			reservations.POST("/:id/commit", resHandler.Commit)
			reservations.POST("/:id/release", resHandler.Release)
		}

		forecast := v1.Group("/forecast")
		{
			forecast.GET("/reorder", fcHandler.GetReorderForecast)
			forecast.GET("/at_risk", fcHandler.ListAtRiskItems)
			forecast.GET("/suggestions", fcHandler.ListReorderSuggestions)
		}
	}
}
