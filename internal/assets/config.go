package assets

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/wolfeidau/webtools/internal/buildconfig"
)

type Config struct {
	// Project root, entry points and the output directory are relative to it
	Root string
	// Build mode exposed to bundled code as process.env.NODE_ENV
	Mode string
	// Pages to generate keyed by page id
	Pages map[string]buildconfig.Page
	// URL prefix for every emitted asset reference
	PublicPath string
	// Output directory for built files (relative to Root)
	OutputDir string
	// Path to metafile (relative to Root)
	MetafilePath string
	// Whether to minify output
	Minify bool
	// Whether to enable source maps
	SourceMap bool
	// Write .zst siblings for compressible outputs
	Compress bool
	// Remove OutputDir before a one-shot build
	Clean bool
	// HTML template for generated pages, the embedded default when empty
	TemplatePath string
}

// FromBuildConfig derives the pipeline configuration for the project rooted at root.
func FromBuildConfig(env buildconfig.Environment, cfg buildconfig.Config, root string) Config {
	return Config{
		Root:         root,
		Mode:         env.String(),
		Pages:        cfg.Pages,
		PublicPath:   cfg.PublicPath,
		OutputDir:    cfg.OutputDir,
		MetafilePath: filepath.Join(cfg.OutputDir, "meta.json"),
		Minify:       cfg.MinifyEnabled(),
		SourceMap:    cfg.SourceMapEnabled(),
		Compress:     cfg.MinifyEnabled(),
		Clean:        true,
	}
}

func (c Config) outputDir() string {
	return c.abs(c.OutputDir)
}

func (c Config) metafilePath() string {
	return c.abs(c.MetafilePath)
}

func (c Config) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}

func (c Config) pageIDs() []string {
	return slices.Sorted(maps.Keys(c.Pages))
}
