package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fitdex/fitdex/pkg/auth"
	"github.com/fitdex/fitdex/pkg/bootstrap"
	"github.com/fitdex/fitdex/pkg/config"
	"github.com/fitdex/fitdex/pkg/exerciseapi"
	"github.com/fitdex/fitdex/pkg/favorites"
	"github.com/fitdex/fitdex/pkg/storage"
	"github.com/fitdex/fitdex/pkg/telemetry"
)

// app is the wired application shared by the subcommands.
type app struct {
	cfg       *config.Config
	tel       *telemetry.Telemetry
	logger    zerolog.Logger
	kv        *storage.Instrumented
	favorites *favorites.Store
	auth      *auth.Store
	report    bootstrap.Report
}

// loadConfig resolves and loads the configuration, honouring --verbose.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// openApp loads configuration and builds the app from it.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

// newApp opens storage and hydrates both stores. The returned app is
// ready: the session has been restored before any caller looks at it.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	// Loggers are built at trace level and filtered by the global level so
	// a config reload can raise verbosity as well as lower it.
	telCfg := cfg.Telemetry
	telCfg.Logging.Level = "trace"
	tel, err := telemetry.NewTelemetry(&telCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	telemetry.SetGlobalLevel(cfg.Telemetry.Logging.Level)
	logger := tel.Logger.Zerolog()

	kv, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	instrumented := storage.Instrument(kv, cfg.Storage.Driver, tel.Metrics)

	a := &app{
		cfg:    cfg,
		tel:    tel,
		logger: logger,
		kv:     instrumented,
		favorites: favorites.New(instrumented,
			favorites.WithLogger(logger),
			favorites.WithTelemetry(tel),
		),
		auth: auth.New(instrumented,
			auth.WithLogger(logger),
			auth.WithTelemetry(tel),
		),
	}

	initializer := bootstrap.New(
		[]bootstrap.Hydrator{a.auth, a.favorites},
		bootstrap.WithLogger(logger),
		bootstrap.WithTelemetry(tel),
	)
	go initializer.Run(ctx)

	a.report, err = initializer.Wait(ctx)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("initialization interrupted: %w", err)
	}
	for _, name := range a.report.Degraded() {
		status, _ := a.report.Status(name)
		log.Warn().Str("store", name).Str("status", status.String()).
			Msg("Saved data could not be restored, starting empty")
	}

	return a, nil
}

// apiClient builds the exercise search client.
func (a *app) apiClient() *exerciseapi.Client {
	return exerciseapi.New(a.cfg.API,
		exerciseapi.WithLogger(a.logger),
		exerciseapi.WithMetrics(a.tel.Metrics),
	)
}

func (a *app) close() {
	if err := a.kv.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close storage")
	}
	if err := a.tel.Shutdown(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Failed to shut down telemetry")
	}
}
