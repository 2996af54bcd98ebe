package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/audit"
	"github.com/ekaya-inc/safecode-engine/pkg/auth"
	"github.com/ekaya-inc/safecode-engine/pkg/config"
	"github.com/ekaya-inc/safecode-engine/pkg/database"
	"github.com/ekaya-inc/safecode-engine/pkg/events"
	"github.com/ekaya-inc/safecode-engine/pkg/handlers"
	"github.com/ekaya-inc/safecode-engine/pkg/llm"
	"github.com/ekaya-inc/safecode-engine/pkg/logging"
	"github.com/ekaya-inc/safecode-engine/pkg/mcp"
	mcpauth "github.com/ekaya-inc/safecode-engine/pkg/mcp/auth"
	"github.com/ekaya-inc/safecode-engine/pkg/mcp/tools"
	"github.com/ekaya-inc/safecode-engine/pkg/middleware"
	"github.com/ekaya-inc/safecode-engine/pkg/repositories"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(cfg.Database.URL(), cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	publisher := newPublisher(redisClient, cfg.Redis.EventChannel, logger)

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to initialize JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()
	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	generator, err := llm.NewCodeGenerator(&cfg.Generation, logger)
	if err != nil {
		logger.Fatal("Failed to configure code generation", zap.Error(err))
	}

	// Repositories
	brandRepo := repositories.NewBrandRepository()
	ruleRepo := repositories.NewCodeRuleRepository()
	selectorRepo := repositories.NewDOMSelectorRepository()
	templateRepo := repositories.NewTemplateRepository()
	codeRepo := repositories.NewGeneratedCodeRepository()
	auditRepo := repositories.NewAuditRepository()

	// Services
	securityAuditor := audit.NewSecurityAuditor(logger)
	validationService := services.NewValidationService(&services.ValidationServiceDeps{
		BrandRepo:    brandRepo,
		RuleRepo:     ruleRepo,
		SelectorRepo: selectorRepo,
		TemplateRepo: templateRepo,
		Logger:       logger,
	})
	codeService := services.NewGeneratedCodeService(&services.GeneratedCodeServiceDeps{
		Validation: validationService,
		CodeRepo:   codeRepo,
		Publisher:  publisher,
		Security:   securityAuditor,
		Logger:     logger,
	})
	reviewService := services.NewReviewService(&services.ReviewServiceDeps{
		CodeRepo:  codeRepo,
		AuditRepo: auditRepo,
		TxRunner:  database.NewTxRunner(),
		Publisher: publisher,
		Security:  securityAuditor,
		Logger:    logger,
	})
	auditService := services.NewAuditService(auditRepo, codeRepo, logger)
	generationService := services.NewGenerationService(&services.GenerationServiceDeps{
		Generator:    generator,
		Ingest:       codeService,
		BrandRepo:    brandRepo,
		RuleRepo:     ruleRepo,
		SelectorRepo: selectorRepo,
		TemplateRepo: templateRepo,
		Timeout:      cfg.Generation.Timeout,
		MaxRetries:   cfg.Generation.MaxRetries,
		Logger:       logger,
	})

	// Routes
	mux := http.NewServeMux()
	scope := handlers.ScopeMiddleware(database.WithScopeContext(db, logger))

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewGeneratedCodeHandler(codeService, validationService, generationService, logger).
		RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewReviewHandler(reviewService, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewAuditHandler(auditService, logger).RegisterRoutes(mux, authMiddleware, scope)
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.MCP.Enabled {
		auditor := mcp.NewCallAuditor(logger)
		mcpServer := mcp.NewServer("safecode-engine", cfg.Version, auditor.Hooks(), logger)
		tools.RegisterCodeTools(mcpServer.MCP(), &tools.CodeToolDeps{
			Scopes:     database.NewScopeProvider(db),
			Validation: validationService,
			Codes:      codeService,
			Review:     reviewService,
			Logger:     logger.Named("mcp-tools"),
		})

		mcpAuth := mcpauth.NewMiddleware(authService, logger)
		mcpHandler := middleware.MCPRequestLogger(logger.Named("mcp-http"))(mcpServer.NewStreamableHTTPServer())
		mux.Handle("POST /mcp", mcpAuth.RequireAuth(mcpHandler))
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		useTLS := cfg.TLSCertPath != "" && cfg.TLSKeyPath != ""
		logger.Info("Starting safecode-engine",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", useTLS),
			zap.String("version", cfg.Version))
		if useTLS {
			serveErr <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "local" || env == "test" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func newPublisher(client *redis.Client, channel string, logger *zap.Logger) events.Publisher {
	if client == nil {
		logger.Info("Redis not configured; code events will not be published")
		return events.NewNoopPublisher()
	}
	return events.NewRedisPublisher(client, channel, logger)
}
