package assets

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"sync"
)

//go:embed page.html.tmpl
var defaultPageTemplate string

var (
	ErrEntryNotFound = errors.New("entry point not found")
	ErrBuildFailed   = errors.New("esbuild failed with errors")
	ErrNotBuilt      = errors.New("assets not built yet, call Build() first")
	ErrPageNotFound  = errors.New("page not found")
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
	Bytes      int64        `json:"bytes"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// Asset describes one file in the output directory.
type Asset struct {
	Checksum   string `json:"checksum"`
	Size       int    `json:"size"`
	Compressed bool   `json:"compressed,omitempty"`
}

// Manifest maps output paths, relative to the output directory and slash
// separated, to their asset description.
type Manifest map[string]Asset

// Pipeline manages the asset build process and script loading
type Pipeline struct {
	config   Config
	metadata *BuildMetadata
	manifest Manifest
	pages    map[string][]byte
	tmpl     *template.Template
	mu       sync.RWMutex
}

// New creates a new asset pipeline with the given configuration
func New(config Config) (*Pipeline, error) {
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	config.Root = root

	p := &Pipeline{
		config: config,
	}

	funcs := template.FuncMap{
		"marshal": marshal,
	}

	tmpl := template.New("page").Funcs(funcs)
	if config.TemplatePath != "" {
		tmpl, err = tmpl.ParseFiles(config.TemplatePath)
		if err == nil {
			tmpl = tmpl.Lookup(filepath.Base(config.TemplatePath))
		}
	} else {
		tmpl, err = tmpl.Parse(defaultPageTemplate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	p.tmpl = tmpl
	return p, nil
}

// Config returns the configuration the pipeline was created with.
func (p *Pipeline) Config() Config {
	return p.config
}

// OutputDir returns the absolute output directory.
func (p *Pipeline) OutputDir() string {
	return p.config.outputDir()
}

func marshal(value any) (template.JS, error) {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		return "", errors.New("context can only be json serializable")
	}

	return template.JS(buf.String()), nil //nolint:gosec
}
