package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/adapters"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/cache"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/database"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/engine"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/middleware"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/ratelimit"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/resilience"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/security"
)

// config is the process configuration read from the environment
type config struct {
	port            string
	dataDir         string
	scoringProfile  string
	seedFile        string
	redisAddr       string
	redisPassword   string
	redisDB         int
	concurrency     int
	cacheTTL        time.Duration
	upstreamTimeout time.Duration
	upstreamRPS     int
	retryPolicy     string
	trustURL        string
	trustToken      string
	allowedOrigins  []string
	logLevel        string
}

func loadConfig() config {
	return config{
		port:            getEnvOrDefault("PORT", "8080"),
		dataDir:         getEnvOrDefault("DATA_DIR", "./data"),
		scoringProfile:  getEnvOrDefault("SCORING_PROFILE", "default"),
		seedFile:        getEnvOrDefault("SEED_FILE", "./configs/seed.yaml"),
		redisAddr:       os.Getenv("REDIS_ADDR"),
		redisPassword:   os.Getenv("REDIS_PASSWORD"),
		redisDB:         getEnvInt("REDIS_DB", 0),
		concurrency:     getEnvInt("ENGINE_CONCURRENCY", engine.DefaultConfig().Concurrency),
		cacheTTL:        getEnvDuration("CACHE_TTL", engine.DefaultConfig().CacheTTL),
		upstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", adapters.DefaultGuardConfig().Timeout),
		upstreamRPS:     getEnvInt("UPSTREAM_RPS", ratelimit.DefaultConfig().UpstreamRPS),
		retryPolicy:     getEnvOrDefault("UPSTREAM_RETRY_POLICY", resilience.FastRetryPolicy.Name),
		trustURL:        os.Getenv("TRUST_SERVICE_URL"),
		trustToken:      os.Getenv("TRUST_SERVICE_TOKEN"),
		allowedOrigins:  strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),
		logLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func main() {
	cfg := loadConfig()

	appLogger := monitoring.NewLoggerWithOptions(os.Stdout, monitoring.ParseLevel(cfg.logLevel))
	slog.SetDefault(appLogger.Logger)

	if err := run(cfg, appLogger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, appLogger *monitoring.Logger) error {
	ctx := context.Background()

	db, err := database.NewDB(cfg.dataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	if err := repo.SeedIfEmpty(ctx, cfg.seedFile); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	analyzer, err := analysis.NewAnalyzerFromProfile(cfg.dataDir, cfg.scoringProfile)
	if err != nil {
		return fmt.Errorf("failed to load scoring profile %q: %w", cfg.scoringProfile, err)
	}

	redisClient, err := ratelimit.NewRedisClient(cfg.redisAddr, cfg.redisPassword, cfg.redisDB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing in-memory", "error", err)
	}
	defer redisClient.Close()

	appMetrics := monitoring.NewMetrics()

	limiterConfig := ratelimit.DefaultConfig()
	limiterConfig.UpstreamRPS = cfg.upstreamRPS
	limiter := ratelimit.NewRateLimiter(redisClient, limiterConfig, appMetrics)
	defer limiter.Close()

	breakers := resilience.NewBreakerRegistry(resilience.DefaultBreakerConfig(), func(name string, from, to gobreaker.State) {
		appMetrics.RecordCircuitBreakerChange(to == gobreaker.StateOpen)
		appLogger.Warn("Circuit breaker state changed", "service", name, "from", from.String(), "to", to.String())
	})

	guard := adapters.NewGuard(adapters.GuardConfig{
		Timeout: cfg.upstreamTimeout,
		Retry:   resilience.PolicyByName(cfg.retryPolicy).Config,
	}, limiter, breakers, appLogger, appMetrics)

	var trust engine.TrustService = database.NewTrustService(repo)
	if cfg.trustURL != "" {
		client := adapters.NewTrustClient(cfg.trustURL, cfg.trustToken)
		defer client.Close()
		trust = client
		slog.Info("Using remote trust service", "url", cfg.trustURL)
	}

	var store engine.CacheStore
	if redisClient.IsEnabled() {
		rs, err := cache.NewRedisStore(redisClient.GetClient(), "collab:", cfg.cacheTTL)
		if err != nil {
			return fmt.Errorf("failed to create redis cache: %w", err)
		}
		store = rs
	} else {
		ms := cache.NewMemoryStore(cfg.cacheTTL, 10*time.Minute)
		defer ms.Close()
		store = ms
	}

	deps := adapters.Guarded(engine.Dependencies{
		Profiles:  repo,
		Directory: repo,
		Trust:     trust,
		Cache:     store,
	}, guard)

	engineConfig := engine.DefaultConfig()
	engineConfig.Concurrency = cfg.concurrency
	engineConfig.CacheTTL = cfg.cacheTTL

	eng, err := engine.New(engineConfig, analyzer, deps,
		engine.WithLogger(appLogger),
		engine.WithMetrics(appMetrics))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	securityConfig := security.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = cfg.allowedOrigins

	checks := map[string]HealthCheck{
		"database": db.PingContext,
	}
	if redisClient.IsEnabled() {
		checks["redis"] = redisClient.HealthCheck
	}

	r := setupRouter(&server{
		engine:      eng,
		database:    db,
		security:    security.NewSecurityMiddleware(securityConfig),
		metrics:     appMetrics,
		logger:      appLogger,
		limiter:     limiter,
		breakers:    breakers,
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		checks:      checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.SystemLogger("startup", "listening on :"+cfg.port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}

// getEnvOrDefault returns the environment value of key or defaultValue
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Ignoring invalid integer setting", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Ignoring invalid duration setting", "key", key, "value", value)
		return defaultValue
	}
	return d
}
