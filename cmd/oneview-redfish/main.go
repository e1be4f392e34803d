package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/mpramodhpe/oneview-redfish-toolkit/api"
	"github.com/mpramodhpe/oneview-redfish-toolkit/api/health"
	"github.com/mpramodhpe/oneview-redfish-toolkit/api/metrics"
	"github.com/mpramodhpe/oneview-redfish-toolkit/api/redfish"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/config"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/metric"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/oneview"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/otel"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/subscription"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	// GitRev is the git revision of the build. It is set by the Makefile.
	GitRev = "unknown (use make)"

	startTime = time.Now()
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		stdr.New(log.New(os.Stderr, "", log.LstdFlags)).Error(err, "failed to load configuration")
		os.Exit(1)
	}

	logger := cfg.Log
	logger.Info("OneView Redfish gateway starting", "version", GitRev, "start_time", startTime)

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
	)
	defer cancel()

	ctx, otelShutdown, err := otel.Init(ctx, otel.Config{
		Servicename: "oneview-redfish",
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		Logger:      logger.WithName("otel"),
	})
	if err != nil {
		logger.Error(err, "failed to initialize OpenTelemetry")
		os.Exit(1)
	}
	defer otelShutdown()
	metric.Init()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(err, "gateway stopped with error")
		os.Exit(1)
	}

	logger.Info("OneView Redfish gateway shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger logr.Logger) error {
	client, err := oneview.NewClient(logger.WithName("oneview"), cfg.OneView)
	if err != nil {
		return fmt.Errorf("failed to create OneView client: %w", err)
	}
	// Requests log in lazily, so a OneView outage at startup only degrades health.
	if err := client.LoginWithBackoff(ctx, oneview.DefaultLoginBackoff); err != nil {
		logger.Error(err, "OneView login failed, continuing without a session", "endpoint", cfg.OneView.Endpoint)
	}

	schemas, err := config.LoadSchemaRegistry(logger.WithName("schemas"), cfg.Redfish.SchemasFile)
	if err != nil {
		return fmt.Errorf("failed to load schema registry %s: %w", cfg.Redfish.SchemasFile, err)
	}
	logger.Info("schema registry loaded", "file", cfg.Redfish.SchemasFile, "schemas", len(schemas.Entries()))

	subs, err := subscription.NewStore(logger.WithName("subscriptions"), cfg.Redfish.SubscriptionsFile)
	if err != nil {
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}

	slogger := slog.New(logr.ToSlogHandler(logger.WithName("http")))
	apiServer := api.New(cfg, slogger)

	apiServer.AddHandler("/healthcheck", health.New(slogger, GitRev, startTime, map[string]health.Check{
		"oneview": client.Ping,
	}))
	logger.V(1).Info("registered health check handler", "path", "/healthcheck")

	apiServer.AddHandler("/metrics", metrics.New(slogger, prometheus.DefaultGatherer))
	logger.V(1).Info("registered metrics handler", "path", "/metrics")

	apiServer.AddHandler("/redfish/", redfish.New(cfg, schemas, client, subs))
	logger.V(1).Info("registered Redfish handler", "path", "/redfish/")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return schemas.Watch(ctx)
	})

	g.Go(func() error {
		return apiServer.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down HTTP server")
		return apiServer.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("service error: %w", err)
	}

	return nil
}
