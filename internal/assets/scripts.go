package assets

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

type pageData struct {
	Title    string
	Entry    string
	Preloads []string
	Styles   []string
	Context  map[string]string
}

// LoadScripts returns the ordered list of script URLs needed for the given
// entrypoint and the URL of the main entrypoint file. The entry chunk comes
// first, followed by its static imports in depth first order, each listed once.
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	scripts, _, err := p.resolveEntry(p.metadata, entryPointPath)
	if err != nil {
		return nil, "", err
	}
	return scripts, scripts[0], nil
}

// resolveEntry finds the output chunk for entryPointPath and returns its
// script URLs and the stylesheet URLs bundled for it.
func (p *Pipeline) resolveEntry(metadata *BuildMetadata, entryPointPath string) ([]string, []string, error) {
	entryPointPath = path.Clean(filepath.ToSlash(entryPointPath))

	for outputPath, info := range metadata.Outputs {
		if info.EntryPoint != entryPointPath || !strings.HasSuffix(outputPath, ".js") {
			continue
		}

		visited := map[string]bool{outputPath: true}
		scripts := []string{p.assetURL(outputPath)}
		p.addDependencies(metadata, info, &scripts, visited)

		var styles []string
		if info.CSSBundle != "" {
			styles = append(styles, p.assetURL(info.CSSBundle))
		}
		return scripts, styles, nil
	}

	return nil, nil, fmt.Errorf("entrypoint %s not found in metadata", entryPointPath)
}

func (p *Pipeline) addDependencies(metadata *BuildMetadata, output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		// dynamic imports load on demand and are not preloaded
		if imp.External || imp.Kind != "import-statement" {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, p.assetURL(imp.Path))

			if chunkInfo, exists := metadata.Outputs[imp.Path]; exists {
				p.addDependencies(metadata, chunkInfo, scripts, visited)
			}
		}
	}
}

// assetURL turns a metafile output path, relative to the project root, into
// the URL the browser requests it from.
func (p *Pipeline) assetURL(outputPath string) string {
	rel, err := filepath.Rel(p.config.outputDir(), filepath.Join(p.config.Root, filepath.FromSlash(outputPath)))
	if err != nil {
		rel = outputPath
	}
	return p.config.PublicPath + filepath.ToSlash(rel)
}

func (p *Pipeline) renderPage(metadata *BuildMetadata, id, entry, title string) ([]byte, error) {
	scripts, styles, err := p.resolveEntry(metadata, entry)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", id, err)
	}

	data := pageData{
		Title:    title,
		Entry:    scripts[0],
		Preloads: scripts[1:],
		Styles:   styles,
		Context: map[string]string{
			"page":       id,
			"mode":       p.config.Mode,
			"publicPath": p.config.PublicPath,
		},
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render page %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

// Page returns the generated HTML document for the page with the given id.
func (p *Pipeline) Page(id string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pages == nil {
		return nil, ErrNotBuilt
	}
	html, ok := p.pages[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrPageNotFound)
	}
	return html, nil
}

// Handler returns an http.HandlerFunc that serves the generated page with
// the given id, always reflecting the latest build.
func (p *Pipeline) Handler(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html, err := p.Page(id)
		if err != nil {
			if errors.Is(err, ErrPageNotFound) {
				http.NotFound(w, r)
				return
			}
			log.Ctx(r.Context()).Error().Err(err).Str("page", id).Msg("Failed to load page")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(html); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to write page")
		}
	}
}
