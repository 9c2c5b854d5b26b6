// Package main is the entry point for the planning service. It wires all
// dependencies using samber/do v2, starts the HTTP server, and handles
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	"github.com/orgplan/orgplan/internal/adapters/events"
	adapthttp "github.com/orgplan/orgplan/internal/adapters/http"
	"github.com/orgplan/orgplan/internal/adapters/http/handlers"
	"github.com/orgplan/orgplan/internal/adapters/http/middleware"
	"github.com/orgplan/orgplan/internal/adapters/memory"

	"github.com/orgplan/orgplan/internal/app"
	"github.com/orgplan/orgplan/internal/platform/config"
	"github.com/orgplan/orgplan/internal/platform/health"
	"github.com/orgplan/orgplan/internal/platform/logging"
	"github.com/orgplan/orgplan/internal/platform/telemetry"
	"github.com/orgplan/orgplan/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const otelShutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, dev, qa, prod)")
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolving the services and the server wires the full graph up front.
	if err := resolveServices(injector); err != nil {
		return err
	}
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	db := do.MustInvoke[*memory.DB](injector)
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	registry.Register(db)
	registry.Register(do.MustInvoke[*events.Publisher](injector))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// The server applies cfg.Server.ShutdownTimeout to a context without a deadline.
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	<-serverErr

	db.Close()

	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp, cfg.Telemetry.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func resolveServices(injector do.Injector) error {
	if _, err := do.Invoke[ports.TeamService](injector); err != nil {
		return fmt.Errorf("resolving team service: %w", err)
	}
	if _, err := do.Invoke[ports.PortfolioService](injector); err != nil {
		return fmt.Errorf("resolving portfolio service: %w", err)
	}
	if _, err := do.Invoke[ports.InitiativeService](injector); err != nil {
		return fmt.Errorf("resolving initiative service: %w", err)
	}
	return nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	do.Provide(injector, func(_ do.Injector) (*memory.DB, error) {
		return memory.New(), nil
	})

	do.Provide(injector, func(_ do.Injector) (*events.Journal, error) {
		return events.NewJournal(0), nil
	})

	do.Provide(injector, func(i do.Injector) (*events.Publisher, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		pub := events.New(cfg.Events, metrics, logger)
		pub.Subscribe(do.MustInvoke[*events.Journal](i))
		return pub, nil
	})

	do.Provide(injector, func(i do.Injector) (app.Deps, error) {
		return app.Deps{
			Publisher: do.MustInvoke[*events.Publisher](i),
			Clock:     ports.SystemClock{},
			Metrics:   do.MustInvoke[*telemetry.Metrics](i),
			Logger:    logger,
		}, nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TeamService, error) {
		db := do.MustInvoke[*memory.DB](i)
		return app.NewTeamService(db.Teams(), cfg.Planning, do.MustInvoke[app.Deps](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.PortfolioService, error) {
		db := do.MustInvoke[*memory.DB](i)
		return app.NewPortfolioService(db.Portfolios(), cfg.Planning, do.MustInvoke[app.Deps](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.InitiativeService, error) {
		db := do.MustInvoke[*memory.DB](i)
		return app.NewInitiativeService(db.Initiatives(), do.MustInvoke[app.Deps](i)), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(health.WithCheckTimeout(cfg.Server.HealthCheckTimeout)), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		return handlers.NewHealthHandler(registry), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.EventsHandler, error) {
		return handlers.NewEventsHandler(do.MustInvoke[*events.Journal](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		eventsH := do.MustInvoke[*handlers.EventsHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		return adapthttp.NewRouter(healthH, eventsH,
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}
