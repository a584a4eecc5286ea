// Package app wires configuration, storage and services into the shared
// core used by cmd/navcheck-server and cmd/navcheck.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/services/report"
	"github.com/bobmcallan/navcheck/internal/services/result"
	"github.com/bobmcallan/navcheck/internal/services/returns"
	"github.com/bobmcallan/navcheck/internal/services/run"
	"github.com/bobmcallan/navcheck/internal/services/validation"
	"github.com/bobmcallan/navcheck/internal/storage"
)

// App holds the initialized storage and services.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Storage       interfaces.StorageManager
	RunService    interfaces.RunService
	ReportService interfaces.ReportService
	StartupTime   time.Time

	scheduler *cron.Cron
	logCloser io.Closer
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, then
// NAVCHECK_CONFIG, then navcheck.toml next to the binary, then
// config/navcheck.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("NAVCHECK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "navcheck.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/navcheck.toml"
		}
	}
	return configPath
}

// Option adjusts the loaded configuration before services are built.
type Option func(*common.Config)

// NewApp loads configuration from configPath (see ResolveConfigPath),
// builds the logger and initializes every service. Options run after
// relative paths are resolved.
func NewApp(ctx context.Context, configPath string, opts ...Option) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	resolvePaths(config, getBinaryDir())
	for _, opt := range opts {
		opt(config)
	}

	logger, closer, err := common.NewLoggerFromConfig(config.Logging)
	if err != nil {
		return nil, err
	}

	a, err := New(ctx, config, logger)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	a.logCloser = closer
	return a, nil
}

// resolvePaths anchors relative file locations to the binary directory so
// the server runs the same from any working directory.
func resolvePaths(config *common.Config, binDir string) {
	for _, p := range []*string{
		&config.Storage.SQLite.Path,
		&config.Storage.Badger.Path,
		&config.Storage.Catalog.Path,
		&config.Logging.FilePath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(binDir, *p)
		}
	}
}

// New initializes storage and services from an already loaded config.
func New(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	storageManager, err := storage.NewManager(ctx, logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engine := validation.NewEngine(result.NewBuilder(config.Engine.ProductName), annotations(config.Engine))
	returnsService := returns.NewService(storageManager.DataSource(), storageManager.BenchmarkStore(), config.Engine, logger)
	runService := run.NewService(storageManager, returnsService, engine, config.Cache, logger)
	reportService := report.NewService(storageManager.RunStore(), logger)

	a := &App{
		Config:        config,
		Logger:        logger,
		Storage:       storageManager,
		RunService:    runService,
		ReportService: reportService,
		StartupTime:   startupStart,
	}

	logger.Info().
		Dur("elapsed", time.Since(startupStart)).
		Str("product", config.Engine.ProductName).
		Int("annotations", len(config.Engine.Annotations)).
		Bool("cache", config.Cache.Enabled).
		Msg("Application initialized")

	return a, nil
}

func annotations(cfg common.EngineConfig) []validation.Annotation {
	out := make([]validation.Annotation, 0, len(cfg.Annotations))
	for _, a := range cfg.Annotations {
		if a.Match == "" {
			continue
		}
		out = append(out, validation.Annotation{
			Category: a.Category,
			Match:    a.Match,
			Info:     a.Info,
		})
	}
	return out
}

// Close stops the scheduler and releases storage and the log file.
func (a *App) Close() {
	a.StopScheduler()
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}
