package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"habit-coach-backend/internal/ai"
	"habit-coach-backend/internal/analytics"
	"habit-coach-backend/internal/auth"
	"habit-coach-backend/internal/coach"
	"habit-coach-backend/internal/config"
	"habit-coach-backend/internal/db"
	"habit-coach-backend/internal/logging"
	"habit-coach-backend/internal/server"
	"habit-coach-backend/internal/tasks"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	inMemory bool
	tokenTTL time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Habit coach backend: task scoring and recommendations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Connect(cfg.ConnString())
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer database.Close()

		if err := db.Migrate(cmd.Context(), database); err != nil {
			return err
		}
		logger.Info("schema applied", zap.String("db", cfg.DBName))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Mint a bearer token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		tok, err := auth.GenerateToken([]byte(cfg.JWTSecret), args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&inMemory, "memory", false, "keep data in memory instead of PostgreSQL")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newOracle(ctx context.Context, c *config.Config) (ai.Oracle, string, error) {
	switch strings.ToLower(c.AIProvider) {
	case config.ProviderOpenAI:
		o, err := ai.NewOpenAIClient(c.OpenAIKey, c.OpenAIModel)
		if err != nil {
			return nil, "", err
		}
		return o, o.Name(), nil
	default:
		o, err := ai.NewGeminiClient(ctx, c.AIKey, c.AIModel, c.AIJSONMode)
		if err != nil {
			return nil, "", err
		}
		return o, o.Name(), nil
	}
}

func runServe(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var (
		store  tasks.Store
		events analytics.Sink
	)
	if inMemory {
		store = tasks.NewMemoryStore()
		events = analytics.LogSink{Logger: logger}
		logger.Warn("running with in-memory storage; data is lost on exit")
	} else {
		database, err := db.Connect(cfg.ConnString())
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer database.Close()
		logger.Info("connected to PostgreSQL", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

		store = tasks.NewPostgresStore(database)
		events = analytics.PostgresSink{DB: database}
		if err := pingSchema(ctx, database); err != nil {
			logger.Warn("schema check failed; run `api migrate`", zap.Error(err))
		}
	}

	oracle, name, err := newOracle(ctx, cfg)
	if err != nil {
		return fmt.Errorf("oracle: %w", err)
	}
	logger.Info("oracle ready", zap.String("backend", name), zap.Duration("timeout", cfg.OracleTimeout))

	engine := coach.NewEngine(store, ai.NewGateway(oracle, cfg.OracleTimeout), events, logger)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.New(server.Deps{
			Engine:      engine,
			Store:       store,
			Auth:        auth.New([]byte(cfg.JWTSecret)),
			Log:         logger,
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server is running", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func pingSchema(ctx context.Context, database *sql.DB) error {
	var n int
	return database.QueryRowContext(ctx, `SELECT count(*) FROM tasks WHERE false`).Scan(&n)
}
