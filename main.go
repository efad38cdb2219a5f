package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"checkout-form-api/config"
	"checkout-form-api/handlers"
	"checkout-form-api/metrics"
	"checkout-form-api/middleware"
	"checkout-form-api/queue"
	"checkout-form-api/services/payment"
	"checkout-form-api/services/signup"
	"checkout-form-api/storage"
	"checkout-form-api/worker"
)

func main() {
	bootLogger, _ := zap.NewDevelopment()

	cfg, err := config.Load(bootLogger)
	if err != nil {
		bootLogger.Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := config.NewLogger(cfg.IsProduction(), cfg.Log.Level)
	if err != nil {
		bootLogger.Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis")
	}

	var (
		jobQueue queue.Queue
		subStore storage.SubmissionStore
	)
	switch cfg.Form.QueueBackend {
	case "redis":
		jobQueue = queue.NewRedisQueueWithClient(redisClient, cfg.Redis.QueueName, logger)
		subStore = storage.NewRedisStore(redisClient, cfg.Form.SubmissionTTL)
	default:
		jobQueue = queue.NewMemoryQueue(logger)
		subStore = storage.NewMemoryStore(cfg.Form.SubmissionTTL)
	}
	logger.Info("submission backend ready", zap.String("backend", cfg.Form.QueueBackend))

	paymentService := payment.NewPaymentService(payment.Options{
		Clock:           payment.SystemClock,
		Queue:           jobQueue,
		Store:           subStore,
		SubmissionDelay: cfg.Form.SubmissionDelay,
		Logger:          logger,
		Metrics:         appMetrics,
	})
	signupService := signup.NewService(logger, appMetrics)

	paymentWorker := worker.NewWorker(jobQueue, paymentService, cfg.Form.WorkerPoll, logger)
	paymentWorker.Start(cfg.Redis.WorkerConcurrency)

	sessionStore := handlers.NewSessionStore(cfg.Session)
	paymentFormHandler, err := handlers.NewPaymentFormHandler(sessionStore, paymentService, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize payment form handler: %w", err)
	}
	signupHandler := handlers.NewSignupHandler(sessionStore, signupService, logger)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"queue":       jobQueue,
		"submissions": subStore,
	})

	router := mux.NewRouter()
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(logger))
	if cfg.Redis.RateLimitEnabled {
		router.Use(middleware.NewRateLimiter(redisClient, logger).RateLimitMiddleware())
	}

	handlers.Register(router, paymentFormHandler, signupHandler, healthHandler)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		paymentWorker.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	logger.Info("stopping payment worker")
	paymentWorker.Stop()

	if err := jobQueue.Close(); err != nil {
		logger.Warn("failed to close queue", zap.Error(err))
	}

	logger.Info("server exited properly")
	return nil
}
