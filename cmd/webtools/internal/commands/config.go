package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/wolfeidau/webtools/internal/buildconfig"
)

type ConfigCmd struct {
	Format   string `help:"Output format." enum:"yaml,json" default:"yaml" short:"o"`
	Validate bool   `help:"Fail when the configuration is invalid." default:"true" negatable:""`

	out io.Writer `kong:"-"`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	var (
		cfg buildconfig.Config
		err error
	)
	if c.Validate {
		cfg, err = globals.config()
	} else {
		cfg, err = buildconfig.Load(globals.Env, globals.Overrides)
	}
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}

	if c.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}
	return buildconfig.Encode(out, cfg)
}
