package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/cb-discovery/internal/config"
	"github.com/jonathan/cb-discovery/internal/db"
	"github.com/jonathan/cb-discovery/internal/llm"
	"github.com/jonathan/cb-discovery/internal/rendering"
	"github.com/jonathan/cb-discovery/internal/server"
	"github.com/jonathan/cb-discovery/internal/server/ratelimit"
	"github.com/jonathan/cb-discovery/internal/session"
)

var (
	serveAddr      string
	serveMigrate   bool
	serveWhitelist string
	serveBlacklist string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the survey wizard, scoring, reports and admin endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply database migrations before serving")
	serveCmd.Flags().StringVar(&serveWhitelist, "rate-whitelist", "", "Comma-separated client IPs exempt from rate limiting")
	serveCmd.Flags().StringVar(&serveBlacklist, "rate-blacklist", "", "Comma-separated client IPs always rejected")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(cfg.Survey.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load question catalog: %w", err)
	}

	jwtConfig, err := cfg.Auth.JWT()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	passwordConfig, err := cfg.Auth.Password()
	if err != nil {
		return fmt.Errorf("failed to create password config: %w", err)
	}
	roles, err := config.HashRolePasswords(passwordConfig, cfg.Auth.Passwords)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Logger:   logger,
		Catalog:  catalog,
		Exporter: rendering.NewExporter(rendering.NewChromiumPDFRenderer(cfg.Survey.ChromePath, cfg.Survey.PDFTimeout)),
		JWT:      jwtConfig,
		Roles:    roles,
		Checks:   map[string]server.HealthCheck{},
	}

	// Sessions
	if cfg.Redis.Address != "" {
		client, err := session.DialRedis(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		store := session.NewRedisStore(client, cfg.Redis.SessionTTL)
		deps.Sessions = store
		deps.Checks["redis"] = store.Ping
		logger.Info("using redis session store", zap.String("addr", cfg.Redis.Address))
	} else {
		deps.Sessions = session.NewMemoryStore(cfg.Redis.SessionTTL)
		logger.Info("using in-memory session store")
	}

	// Submissions
	if cfg.Database.URL != "" {
		database, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer database.Close()
		if serveMigrate {
			applied, err := database.Migrate(ctx)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", zap.Strings("files", applied))
		}
		deps.Submissions = database
		deps.Checks["database"] = database.Ping
	} else {
		logger.Warn("DATABASE_URL not set; submissions are disabled")
	}

	// Language model
	llmConfig, err := cfg.LLM.ClientConfig()
	if err != nil {
		return err
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.LLM.APIKey())
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()
	if _, ok := client.(llm.Unavailable); ok {
		logger.Warn("no LLM API key configured; using deterministic fallbacks", zap.String("provider", string(llmConfig.Provider)))
	}
	deps.Completer = client

	srv, err := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TestMode:       cfg.Survey.TestMode,
		RateLimit:      ratelimit.NewConfig(cfg.Server.RateLimit, cfg.Server.RateBurst, serveWhitelist, serveBlacklist),
	}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
