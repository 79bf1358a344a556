package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"librabranch/internal/branch"
	"librabranch/internal/config"
	"librabranch/internal/telemetry"
)

// importedSuffix marks an exchange file that has been taken in, so a restart does not add
// the same stock twice.
const importedSuffix = ".imported"

// App represents the application
type App struct {
	config    *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Providers
	network   *branch.Network
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	return NewWithConfig(cfg, logger)
}

// NewWithConfig builds the application from an already loaded configuration.
func NewWithConfig(cfg *config.Config, logger *zap.Logger) (*App, error) {
	providers, err := telemetry.Setup(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	a := &App{config: cfg, logger: logger, telemetry: providers}
	if err := a.initNetwork(); err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, err
	}

	logger.Info("librarian started",
		zap.Strings("branches", cfg.Branches),
		zap.String("exchange_dir", cfg.ExchangeDir),
		zap.Duration("overdue_scan_interval", cfg.OverdueScanInterval),
	)
	return a, nil
}

// initNetwork creates one branch per configured name
func (a *App) initNetwork() error {
	meter := a.telemetry.MeterProvider.Meter("librabranch")
	tracer := a.telemetry.TracerProvider.Tracer("librabranch")

	network, err := branch.NewNetwork()
	if err != nil {
		return err
	}
	for _, name := range a.config.Branches {
		b, err := branch.New(name,
			branch.WithLogger(a.logger),
			branch.WithMeter(meter),
			branch.WithTracer(tracer),
			branch.WithLoginAttemptsPerMinute(a.config.LoginAttemptsPerMinute),
		)
		if err != nil {
			return fmt.Errorf("failed to create branch %s: %w", name, err)
		}
		if err := network.Add(b); err != nil {
			return fmt.Errorf("failed to add branch %s: %w", name, err)
		}
	}

	a.network = network
	return nil
}

// Network exposes the branches served by this process.
func (a *App) Network() *branch.Network { return a.network }

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		_ = a.Shutdown()
		return err
	}

	a.logger.Info("shutting down")
	return a.Shutdown()
}

func (a *App) run(ctx context.Context) error {
	if err := a.importIncoming(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(a.config.OverdueScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.scanOverdue(ctx)
		}
	}
}

// importIncoming takes in <ExchangeDir>/<branch>.tsv for every branch that has one and
// renames consumed files.
func (a *App) importIncoming(ctx context.Context) error {
	for _, b := range a.network.Branches() {
		path := filepath.Join(a.config.ExchangeDir, b.Name()+".tsv")
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}

		report, err := b.Import(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		if err := os.Rename(path, path+importedSuffix); err != nil {
			return fmt.Errorf("failed to mark %s imported: %w", path, err)
		}

		a.logger.Info("incoming exchange file imported",
			zap.String("branch", b.Name()),
			zap.Int("added", report.Added),
			zap.Int("repatriated", report.Repatriated),
			zap.Int("unmatched", report.Unmatched),
			zap.Int("skipped", report.Skipped),
		)
	}
	return nil
}

func (a *App) scanOverdue(ctx context.Context) {
	fined, err := a.network.ScanOverdue(ctx)
	if err != nil {
		a.logger.Error("overdue scan failed", zap.Error(err))
	}

	totals, err := a.telemetry.Counters(ctx)
	if err != nil {
		a.logger.Warn("failed to read counters", zap.Error(err))
		return
	}
	fields := []zap.Field{zap.Int("fined", fined)}
	for name, v := range totals {
		fields = append(fields, zap.Int64(name, v))
	}
	a.logger.Info("overdue scan complete", fields...)
}

// Shutdown flushes telemetry and the logger
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("telemetry shutdown error", zap.Error(err))
		return err
	}

	_ = a.logger.Sync()
	return nil
}
