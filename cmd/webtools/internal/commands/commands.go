package commands

import (
	"fmt"

	"github.com/wolfeidau/webtools/internal/assets"
	"github.com/wolfeidau/webtools/internal/buildconfig"
)

type Globals struct {
	Debug     bool
	Version   string
	Env       buildconfig.Environment
	Overrides string
	Root      string
}

// config loads the effective build configuration, applies flag overrides in
// order and validates the result.
func (g *Globals) config(overrides ...func(*buildconfig.Config)) (buildconfig.Config, error) {
	cfg, err := buildconfig.Load(g.Env, g.Overrides)
	if err != nil {
		return buildconfig.Config{}, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return buildconfig.Config{}, fmt.Errorf("invalid build configuration: %w", err)
	}
	return cfg, nil
}

// PipelineFlags are shared by the commands that bundle.
type PipelineFlags struct {
	Template string `help:"HTML template for generated pages." type:"path" env:"WEBTOOLS_TEMPLATE"`
	Compress string `help:"Write zstd precompressed siblings of large outputs (auto enables it for minified builds)." enum:"auto,on,off" default:"auto" env:"WEBTOOLS_COMPRESS"`
}

func (f PipelineFlags) pipeline(g *Globals, cfg buildconfig.Config) (*assets.Pipeline, error) {
	pcfg := assets.FromBuildConfig(g.Env, cfg, g.Root)
	pcfg.TemplatePath = f.Template
	switch f.Compress {
	case "on":
		pcfg.Compress = true
	case "off":
		pcfg.Compress = false
	}

	pipeline, err := assets.New(pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets pipeline: %w", err)
	}
	return pipeline, nil
}
