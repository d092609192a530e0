package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jamie/scholarship-tailor/internal/config"
	"github.com/jamie/scholarship-tailor/internal/db"
	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/logger"
	"github.com/jamie/scholarship-tailor/internal/server"
	"github.com/jamie/scholarship-tailor/internal/session"
)

var (
	serveConfigPath string
	servePort       int
	serveDBURL      string
	serveJWTSecret  string
	serveAPIKey     string
	serveJSONLogs   bool
	serveVerbose    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the REST API. Sessions persist in PostgreSQL when a database
URL is configured, otherwise in memory (sessions are lost on restart).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to JSON config file")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP listen port")
	serveCmd.Flags().StringVar(&serveDBURL, "database-url", "", "PostgreSQL connection URL")
	serveCmd.Flags().StringVar(&serveJWTSecret, "jwt-secret", "", "HMAC secret for bearer tokens")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Gemini API key")
	serveCmd.Flags().BoolVar(&serveJSONLogs, "json-logs", false, "emit JSON logs")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "debug-level logging")

	rootCmd.AddCommand(serveCmd)
}

func loadServeConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := &config.Config{}
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()

	// Flags win over both the file and the environment.
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("database-url") {
		cfg.DatabaseURL = serveDBURL
	}
	if cmd.Flags().Changed("jwt-secret") {
		cfg.JWTSecret = serveJWTSecret
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = serveAPIKey
	}
	cfg.LogJSON = serveJSONLogs
	cfg.Verbose = serveVerbose

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogJSON, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()

	client, err := llm.NewClient(ctx, nil, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}
	defer client.Close()

	var store session.Store
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
		store = db.NewStore(database)
		log.Info("using postgres session store")
	} else {
		store = session.NewMemoryStore()
		log.Warn("no database configured, sessions will not survive restarts")
	}

	opts := session.DefaultOptions()
	opts.WordLimit = cfg.WordLimit
	opts.MaxRetries = cfg.MaxRetries
	opts.StageTimeout = time.Duration(cfg.StageTimeout) * time.Second

	orch := session.NewOrchestrator(store, client, opts, log)

	srv := server.New(server.Config{
		Port:      cfg.Port,
		JWTSecret: cfg.JWTSecret,
	}, orch, store, log)

	log.Info("starting scholarship agent", zap.Int("port", cfg.Port))
	return srv.Start()
}
