package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kwchan/clinic-booking-ai/internal/api/router"
	"github.com/kwchan/clinic-booking-ai/internal/availability"
	"github.com/kwchan/clinic-booking-ai/internal/booking"
	"github.com/kwchan/clinic-booking-ai/internal/clinic"
	"github.com/kwchan/clinic-booking-ai/internal/config"
	"github.com/kwchan/clinic-booking-ai/internal/conversation"
	"github.com/kwchan/clinic-booking-ai/internal/observability/metrics"
	"github.com/kwchan/clinic-booking-ai/internal/validate"
	"github.com/kwchan/clinic-booking-ai/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Warn("invalid clinic timezone, falling back to UTC", "timezone", cfg.ClinicTimezone)
		loc = time.UTC
	}

	catalog, err := clinic.Load(cfg.ClinicConfigFile)
	if err != nil {
		logger.Error("failed to load clinic catalog", "error", err)
		os.Exit(1)
	}

	validator := validate.New(catalog.AppointmentTypes, func() time.Time { return time.Now().In(loc) })
	merger := booking.NewMerger(validator)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	cancel()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
	} else {
		logger.Warn("DATABASE_URL not set, transcript archive disabled")
	}

	geminiClient, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = geminiClient.Close() }()

	llmService := conversation.NewLLMService(geminiClient, cfg.GeminiModel, logger)

	var eventSource availability.EventSource
	if cfg.GoogleCredentialsFile != "" {
		calendarSource, err := availability.NewCalendarSource(ctx,
			cfg.GoogleCredentialsFile, cfg.CalendarID, loc, cfg.AvailabilityDaysAhead)
		if err != nil {
			logger.Error("failed to create calendar source", "error", err)
			os.Exit(1)
		}
		eventSource = calendarSource
	} else {
		logger.Warn("GOOGLE_CREDENTIALS_FILE not set, using mock availability events")
		eventSource = availability.NewMockSource(catalog.Doctors, loc, cfg.AvailabilityDaysAhead, nil)
	}
	scheduler := availability.NewScheduler(eventSource, loc, nil)

	bookingMetrics := metrics.NewBookingMetrics(nil)
	extractor := conversation.NewEntityExtractor(llmService, merger, bookingMetrics)
	store := conversation.NewStore(redisClient, nil, cfg.ConversationTTL)
	archive := conversation.NewTranscriptArchive(db)

	service := conversation.NewService(conversation.Deps{
		Store:     store,
		Archive:   archive,
		Assistant: llmService,
		Extractor: extractor,
		Slots:     scheduler,
		Metrics:   bookingMetrics,
		Logger:    logger,
		MaxTurns:  cfg.MaxConversationTurns,
	})

	handler := conversation.NewHandler(service, logger)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(&router.Config{
			Logger:              logger,
			ConversationHandler: handler,
			MetricsHandler:      promhttp.Handler(),
		}),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env, "clinic", catalog.ClinicName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
