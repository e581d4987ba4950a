package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/webtools/internal/logger"
)

type BuildCmd struct {
	PipelineFlags `embed:""`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = logger.WithContext(ctx, log)

	cfg, err := globals.config()
	if err != nil {
		return err
	}

	log.Info().
		Str("version", globals.Version).
		Str("env", globals.Env.String()).
		Str("public_path", cfg.PublicPath).
		Msg("Starting build")

	pipeline, err := c.pipeline(globals, cfg)
	if err != nil {
		return err
	}

	if err := pipeline.Build(ctx); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	log.Info().Str("outdir", pipeline.OutputDir()).Msg("Build complete")
	return nil
}
