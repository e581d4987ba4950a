package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Build runs esbuild once with the configured settings, then writes the
// metafile, the HTML pages and the asset manifest.
func (p *Pipeline) Build(ctx context.Context) error {
	if err := p.checkEntryPoints(); err != nil {
		return err
	}

	if p.config.Clean {
		if err := p.cleanOutputDir(); err != nil {
			return err
		}
	}

	log.Ctx(ctx).Info().Strs("pages", p.config.pageIDs()).Str("outdir", p.config.OutputDir).Msg("Building assets")

	started := time.Now()
	result := api.Build(p.buildOptions())

	return p.afterBuild(ctx, &result, time.Since(started))
}

// Watch performs an initial build and then rebuilds whenever a source file
// changes, until ctx is cancelled. Failed rebuilds are logged and the
// previous output stays in place.
func (p *Pipeline) Watch(ctx context.Context) error {
	if err := p.checkEntryPoints(); err != nil {
		return err
	}

	opts := p.buildOptions()
	opts.Plugins = append(opts.Plugins, p.rebuildPlugin(ctx))

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		for _, msg := range ctxErr.Errors {
			log.Ctx(ctx).Error().Str("error", msg.Text).Msg("Build context error")
		}
		return fmt.Errorf("failed to create build context: %w", ErrBuildFailed)
	}
	defer buildCtx.Dispose()

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}

	log.Ctx(ctx).Info().Str("root", p.config.Root).Msg("Watching for changes")

	<-ctx.Done()
	return nil
}

func (p *Pipeline) rebuildPlugin(ctx context.Context) api.Plugin {
	return api.Plugin{
		Name: "webtools-pages",
		Setup: func(build api.PluginBuild) {
			var started time.Time
			build.OnStart(func() (api.OnStartResult, error) {
				started = time.Now()
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if err := p.afterBuild(ctx, result, time.Since(started)); err != nil {
					log.Ctx(ctx).Warn().Err(err).Msg("Rebuild failed, keeping previous output")
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

func (p *Pipeline) buildOptions() api.BuildOptions {
	entryPoints := make([]api.EntryPoint, 0, len(p.config.Pages))
	for _, id := range p.config.pageIDs() {
		entryPoints = append(entryPoints, api.EntryPoint{
			InputPath:  p.config.Pages[id].Entry,
			OutputPath: id,
		})
	}

	return api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		AbsWorkingDir:       p.config.Root,
		Bundle:              true,
		Splitting:           true,
		Write:               true,
		Outdir:              p.config.outputDir(),
		EntryNames:          "js/[name]-[hash]",
		ChunkNames:          "js/[name]-[hash]",
		AssetNames:          "assets/[name]-[hash]",
		PublicPath:          p.config.PublicPath,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		MinifyWhitespace:    p.config.Minify,
		MinifyIdentifiers:   p.config.Minify,
		MinifySyntax:        p.config.Minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           cond(p.config.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:            true,
		LogLevel:            api.LogLevelSilent,
		Define: map[string]string{
			"process.env.NODE_ENV": quote(p.config.Mode),
			"process.env.BASE_URL": quote(p.config.PublicPath),
		},
		Loader: map[string]api.Loader{
			".wasm":  api.LoaderFile,
			".png":   api.LoaderFile,
			".jpg":   api.LoaderFile,
			".svg":   api.LoaderFile,
			".woff":  api.LoaderFile,
			".woff2": api.LoaderFile,
		},
	}
}

func (p *Pipeline) afterBuild(ctx context.Context, result *api.BuildResult, elapsed time.Duration) error {
	for _, msg := range result.Warnings {
		log.Ctx(ctx).Warn().Str("warning", msg.Text).Str("file", location(msg)).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Ctx(ctx).Error().Str("error", msg.Text).Str("file", location(msg)).Msg("Build error")
		}
		p.recordBuild(ctx, result, elapsed, ErrBuildFailed)
		return ErrBuildFailed
	}

	err := p.writeOutputs(ctx, result)
	p.recordBuild(ctx, result, elapsed, err)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().Int("files", len(result.OutputFiles)).Dur("duration", elapsed).Msg("Built assets")
	return nil
}

func (p *Pipeline) writeOutputs(ctx context.Context, result *api.BuildResult) error {
	if err := os.MkdirAll(filepath.Dir(p.config.metafilePath()), 0o755); err != nil {
		return fmt.Errorf("failed to create metafile dir: %w", err)
	}
	if err := os.WriteFile(p.config.metafilePath(), []byte(result.Metafile), 0600); err != nil {
		return fmt.Errorf("failed to write metafile: %w", err)
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	outDir := p.config.outputDir()
	files := make(map[string][]byte, len(result.OutputFiles)+len(p.config.Pages))
	for _, file := range result.OutputFiles {
		rel, err := filepath.Rel(outDir, file.Path)
		if err != nil {
			return fmt.Errorf("output %s outside of output dir: %w", file.Path, err)
		}
		files[filepath.ToSlash(rel)] = file.Contents
		log.Ctx(ctx).Debug().Str("file", file.Path).Msg("Built file")
	}

	pages := make(map[string][]byte, len(p.config.Pages))
	for _, id := range p.config.pageIDs() {
		page := p.config.Pages[id]
		html, err := p.renderPage(&metadata, id, page.Entry, page.Title)
		if err != nil {
			return err
		}
		name := page.OutputFilename(id)
		if err := os.WriteFile(filepath.Join(outDir, name), html, 0600); err != nil {
			return fmt.Errorf("failed to write page %s: %w", name, err)
		}
		pages[id] = html
		files[name] = html
	}

	manifest, err := p.writeManifest(files)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.metadata = &metadata
	p.pages = pages
	p.manifest = manifest
	return nil
}

func (p *Pipeline) checkEntryPoints() error {
	if len(p.config.Pages) == 0 {
		return fmt.Errorf("no pages configured: %w", ErrEntryNotFound)
	}
	for _, id := range p.config.pageIDs() {
		entry := p.config.Pages[id].Entry
		info, err := os.Stat(filepath.Join(p.config.Root, entry))
		if err != nil || info.IsDir() {
			return fmt.Errorf("page %s: %s: %w", id, entry, ErrEntryNotFound)
		}
	}
	return nil
}

func (p *Pipeline) cleanOutputDir() error {
	outDir := p.config.outputDir()
	rel, err := filepath.Rel(p.config.Root, outDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to clean output dir %s outside of project root", outDir)
	}
	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("failed to clean output dir: %w", err)
	}
	return os.MkdirAll(outDir, 0o755)
}

func location(msg api.Message) string {
	if msg.Location == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", msg.Location.File, msg.Location.Line, msg.Location.Column)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
