package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrissnell/hilal/pkg/config"
	"github.com/chrissnell/hilal/pkg/hilal"
	"github.com/chrissnell/hilal/pkg/responseformat"
	"go.uber.org/zap"
)

// App holds the engine for one command invocation
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	engine         *hilal.Engine
	formatter      *responseformat.Formatter
	out            io.Writer
}

// Job is a single request against the engine. Its result is written in the
// configured response format.
type Job func(ctx context.Context, e *hilal.Engine) (any, error)

// New loads the configuration and builds the engine
func New(configProvider config.ConfigProvider, format string, logger *zap.SugaredLogger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	formatter, err := responseformat.NewFormatter(format)
	if err != nil {
		return nil, err
	}

	cfg, err := configProvider.LoadConfig()
	if err != nil {
		return nil, err
	}

	engine, err := hilal.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		configProvider: configProvider,
		logger:         logger,
		engine:         engine,
		formatter:      formatter,
		out:            os.Stdout,
	}, nil
}

// Engine returns the configured engine
func (a *App) Engine() *hilal.Engine {
	return a.engine
}

// SetOutput redirects results, which go to stdout by default
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// Run executes the job and writes its result. SIGINT and SIGTERM cancel the
// job's context.
func (a *App) Run(ctx context.Context, job Job) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := job(ctx, a.engine)
	if err != nil {
		if ctx.Err() != nil {
			a.logger.Info("request cancelled")
		}
		return err
	}
	a.logger.Debugw("request complete", "elapsed", time.Since(start).String(), "format", a.formatter.Format())

	return a.formatter.Write(a.out, result)
}

// Close releases the configuration provider
func (a *App) Close() error {
	return a.configProvider.Close()
}
