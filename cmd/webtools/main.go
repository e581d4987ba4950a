package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/webtools/cmd/webtools/internal/commands"
	"github.com/wolfeidau/webtools/internal/buildconfig"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool   `help:"Enable debug mode." env:"WEBTOOLS_DEBUG"`
		Env       string `help:"Build environment, production or development." env:"NODE_ENV" default:"development"`
		Overrides string `help:"YAML file overriding the build configuration." type:"path" env:"WEBTOOLS_OVERRIDES"`
		Root      string `help:"Project root containing the page entry points." type:"path" default:"." env:"WEBTOOLS_ROOT"`
		Version   kong.VersionFlag

		Build  commands.BuildCmd  `cmd:"" help:"Bundle the front end into the output directory"`
		Serve  commands.ServeCmd  `cmd:"" help:"Build, watch and serve the front end"`
		Config commands.ConfigCmd `cmd:"" help:"Print the resolved build configuration"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("webtools"),
		kong.Description("Build and serve the FFMpeg WebTools front end."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:     cli.Debug,
		Version:   version,
		Env:       buildconfig.ParseEnvironment(cli.Env),
		Overrides: cli.Overrides,
		Root:      cli.Root,
	})
	cmd.FatalIfErrorf(err)
}
