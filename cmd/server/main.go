package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
	"github.com/khushigoel4699/Testplansserver/internal/config"
	"github.com/khushigoel4699/Testplansserver/internal/handler"
	"github.com/khushigoel4699/Testplansserver/internal/logging"
	"github.com/khushigoel4699/Testplansserver/internal/metrics"
	"github.com/khushigoel4699/Testplansserver/internal/recommend"
	"github.com/khushigoel4699/Testplansserver/internal/repository"
	"github.com/khushigoel4699/Testplansserver/internal/service"
	"github.com/khushigoel4699/Testplansserver/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:          "testplans-server",
		Short:        "Azure DevOps Test Plans API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	defaultConfig := os.Getenv("CONFIG_FILE")
	if defaultConfig == "" {
		defaultConfig = "config.toml"
	}
	cmd.Flags().StringVar(&configPath, "config", defaultConfig, "Path to config file")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides config and PORT)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	logger := logging.New("server")
	gin.SetMode(gin.ReleaseMode)

	connections, suites, err := initStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	hub := websocket.NewHub()
	lifecycle := ado.NewLifecycle()
	m := metrics.New()

	var recommender recommend.Recommender
	chat, err := recommend.NewAzureChatClient(cfg.OpenAI)
	if err != nil {
		logger.Warn("recommendations disabled", "error", err)
		recommender = recommend.Unavailable(err)
	} else {
		recommender = recommend.NewGenerator(chat, recommend.WithLogger(logging.New("recommend")))
	}

	router := handler.NewRouter(handler.Dependencies{
		Lifecycle:         lifecycle,
		Recommender:       recommender,
		Integrations:      service.NewIntegrationService(connections, suites, lifecycle, hub, logging.New("integration")),
		DefaultTestPlanID: cfg.AzureDevOps.DefaultTestPlanID,
		Metrics:           m,
		Hub:               hub,
		Logger:            logging.New("http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.GetAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run()
		return nil
	})

	g.Go(func() error {
		logger.Info("starting test plans server", "addr", srv.Addr, "store", cfg.Store.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := lifecycle.Initialize(gctx, func(ctx context.Context) (ado.Client, error) {
			return ado.Connect(ctx, cfg.AzureDevOps)
		})
		if err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to initialize Azure DevOps client: %w", err)
		}
		logger.Info("Azure DevOps client initialized",
			"org_url", cfg.AzureDevOps.OrgURL,
			"project", cfg.AzureDevOps.Project)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		hub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	return nil
}

// initStore builds the registry backend. sqlite ":memory:" keeps registries
// for the process lifetime only.
func initStore(cfg config.StoreConfig) (repository.ConnectionRepository, repository.SuiteRepository, error) {
	switch cfg.Type {
	case "memory":
		return repository.NewMemoryConnectionRepository(), repository.NewMemorySuiteRepository(), nil

	case "sqlite":
		if cfg.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}

		db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		// Every pooled connection to ":memory:" would see its own database.
		sqlDB.SetMaxOpenConns(1)

		if err := repository.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		slog.Info("registry store ready", "type", cfg.Type, "dsn", cfg.DSN)
		return repository.NewConnectionRepository(db), repository.NewSuiteRepository(db), nil

	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
