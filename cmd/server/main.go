// File index server
//
// Features:
// - Browsable in-memory item index seeded from YAML
// - Role-gated upload, folder creation and delete
// - JWT session tokens (cookie or bearer)
// - Admin user directory
// - SSE and WebSocket change feeds
// - Prometheus metrics & structured logging (zap)
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TrasheeZZ/dir-browse-serve/internal/api"
	"github.com/TrasheeZZ/dir-browse-serve/internal/auth"
	"github.com/TrasheeZZ/dir-browse-serve/internal/config"
	"github.com/TrasheeZZ/dir-browse-serve/internal/directory"
	"github.com/TrasheeZZ/dir-browse-serve/internal/events"
	"github.com/TrasheeZZ/dir-browse-serve/internal/logging"
	"github.com/TrasheeZZ/dir-browse-serve/internal/metrics"
	"github.com/TrasheeZZ/dir-browse-serve/internal/repository"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fileindex-server",
	Short: "Serve the file index API and web app",
	Long: `fileindex-server serves a browsable, in-memory file index over a JSON
API and an embedded web app. Configuration comes from environment variables
(LISTEN_ADDR, JWT_SECRET, SEED_FILE, ...) and an optional YAML file.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fileindex.yaml or /etc/fileindex/fileindex.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(parent context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		return fmt.Errorf("logging init error: %w", err)
	}
	defer logging.Sync()

	logging.Info("file index server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr))
	if cfg.SecretGenerated {
		logging.Warn("JWT_SECRET not set; using a random secret, sessions will not survive a restart")
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Item repository
	seed, err := loadSeed(cfg.SeedFile)
	if err != nil {
		return err
	}
	repo := repository.New(seed)
	logging.Info("item repository seeded", zap.Int("items", repo.Len()))

	// Authentication
	provider, err := newProvider(cfg.AuthProvider)
	if err != nil {
		return err
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	logging.Info("auth initialized",
		zap.String("provider", cfg.AuthProvider),
		zap.Duration("token_ttl", cfg.TokenTTL))

	dir := directory.New(0)
	broadcaster := events.NewBroadcaster()

	srv := api.NewServer(repo, dir, provider, tokens, broadcaster, cfg)
	go srv.PruneLoginLimiter(ctx.Done(), 5*time.Minute)

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logging.Info("shutting down...")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		httpServer.Shutdown(shutdownCtx)
		metricsServer.Close()
	}()

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func loadSeed(path string) ([]models.Item, error) {
	if path == "" {
		return repository.DefaultSeed()
	}
	logging.Info("loading seed file", zap.String("path", path))
	return repository.LoadSeedFile(path)
}

func newProvider(name string) (auth.Provider, error) {
	switch name {
	case config.ProviderBcrypt:
		p, err := auth.NewHashedProvider(auth.DefaultCredentials(), 0)
		if err != nil {
			return nil, fmt.Errorf("init bcrypt provider: %w", err)
		}
		return p, nil
	default:
		return auth.NewStaticProvider(auth.DefaultCredentials()), nil
	}
}
