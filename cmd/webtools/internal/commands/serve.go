package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/webtools/internal/buildconfig"
	"github.com/wolfeidau/webtools/internal/devserver"
	"github.com/wolfeidau/webtools/internal/logger"
	"github.com/wolfeidau/webtools/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

type ServeCmd struct {
	PipelineFlags `embed:""`

	Host        string   `help:"Dev server host, overrides the build configuration." env:"WEBTOOLS_HOST"`
	Port        int      `help:"Dev server port, overrides the build configuration." env:"WEBTOOLS_PORT"`
	CORSOrigins []string `help:"Origins allowed to fetch assets cross origin." env:"WEBTOOLS_CORS_ORIGINS"`
	NoWatch     bool     `help:"Build once instead of rebuilding on change." env:"WEBTOOLS_NO_WATCH"`
	Tracing     bool     `help:"Export traces and metrics over OTLP." env:"WEBTOOLS_TRACING"`
	SampleRatio float64  `help:"Fraction of requests traced." default:"1" env:"WEBTOOLS_TRACE_SAMPLE_RATIO"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = logger.WithContext(ctx, log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := globals.config(c.applyFlags)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", globals.Version).
		Str("env", globals.Env.String()).
		Bool("watch", !c.NoWatch).
		Msg("Starting dev server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "webtools-devserver",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
		}
	}

	pipeline, err := c.pipeline(globals, cfg)
	if err != nil {
		return err
	}

	// fail fast on a broken project before binding the port
	if err := pipeline.Build(ctx); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	server := devserver.New(cfg, pipeline,
		devserver.WithLogger(log),
		devserver.WithCORS(c.CORSOrigins),
		devserver.WithTracing(c.Tracing),
	)

	g, gctx := errgroup.WithContext(ctx)
	if !c.NoWatch {
		g.Go(func() error {
			return pipeline.Watch(gctx)
		})
	}
	g.Go(func() error {
		return server.Run(gctx)
	})

	return g.Wait()
}

// applyFlags overrides the dev server address with flags that were set.
func (c *ServeCmd) applyFlags(cfg *buildconfig.Config) {
	if c.Host != "" {
		cfg.DevServer.Host = c.Host
	}
	if c.Port != 0 {
		cfg.DevServer.Port = c.Port
	}
}
