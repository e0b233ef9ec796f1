package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rinniizz/crudapi/internal/auth"
	"github.com/rinniizz/crudapi/internal/background"
	"github.com/rinniizz/crudapi/internal/config"
	"github.com/rinniizz/crudapi/internal/database"
	"github.com/rinniizz/crudapi/internal/handlers"
	middlewareCustom "github.com/rinniizz/crudapi/internal/middleware"
	"github.com/rinniizz/crudapi/internal/observability"
	"github.com/rinniizz/crudapi/internal/repositories"
	"github.com/rinniizz/crudapi/internal/routes"
	"github.com/rinniizz/crudapi/internal/services"
	pkgauth "github.com/rinniizz/crudapi/pkg/auth"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
	pkglogger "github.com/rinniizz/crudapi/pkg/logger"
)

const (
	apiName    = "CRUD API"
	apiVersion = "1.0.0"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = observability.NewLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("api_prefix", cfg.Server.APIPrefix),
	)

	// Tracing is a no-op unless an OTLP endpoint is configured
	shutdownTracer, err := observability.InitTracer(context.Background(), cfg.Telemetry.ServiceName, apiVersion, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.Any("error", err))
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrate(db, logger); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, prom)

	// Initialize security primitives
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenExpiry))
	hasher := pkgauth.NewPasswordHasher(cfg.Auth.BcryptCost)
	failureDelay := auth.NewFailureDelay(cfg.Auth.FailureDelay, cfg.Auth.FailureJitter)
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)

	// Initialize services
	userService := services.NewUserService(userRepo, logger, auditLogger)
	authService := services.NewAuthService(userRepo, tokenManager, hasher, logger, auditLogger, services.AuthOptions{
		AllowRoleOnRegister: cfg.Auth.AllowRoleOnRegister,
		FailureDelay:        failureDelay,
		Metrics:             prom,
	})

	// Bootstrap first admin user if configured
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		cancel()
		switch {
		case err != nil:
			logger.Error("failed to ensure admin user", slog.Any("error", err))
		case created:
			logger.Info("admin user created", slog.String("email", pkglogger.SanitizedEmail(cfg.Auth.AdminEmail)))
		default:
			logger.Info("admin user already exists")
		}
	} else {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
	}

	// Initialize handlers
	routeHandlers := routes.Handlers{
		Auth:   handlers.NewAuthHandler(authService, ipConfig),
		User:   handlers.NewUserHandler(userService),
		Health: handlers.NewHealthHandler(db, logger, apiName, apiVersion, cfg.Server.Env),
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.Tracing())
	router.Use(middlewareCustom.Metrics(prom))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.Recoverer(logger))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.RateLimitByIP(middlewareCustom.RateLimitConfig{
		Requests: cfg.Server.RateLimit,
		Window:   cfg.Server.RateWindow,
	}, ipConfig))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// Register routes
	routes.RegisterRoutes(router, routeHandlers, routes.Options{
		APIPrefix:     cfg.Server.APIPrefix,
		Tokens:        tokenManager,
		AuthRateLimit: middlewareCustom.DefaultAuthRateLimit(),
		IPConfig:      ipConfig,
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start pool monitor
	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()

	poolMonitor := background.NewPoolMonitor(db, prom, logger, cfg.Database.StatsInterval)
	go poolMonitor.Start(monitorCtx)

	// Start server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", slog.Any("error", err))
		exitCode = 1
	}

	monitorCancel()
	poolMonitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		exitCode = 1
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped gracefully")
	if exitCode != 0 {
		db.Close()
		os.Exit(exitCode)
	}
}

// migrate applies pending migrations over the already open pool
func migrate(db *database.DB, logger *slog.Logger) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	migrator, err := database.NewMigrator(sqlDB, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	return migrator.Up(ctx)
}
