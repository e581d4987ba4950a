package buildconfig

import (
	"maps"
	"slices"
	"strings"
)

// Environment selects between production and development builds.
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
)

// ParseEnvironment maps an environment indicator such as NODE_ENV to an
// Environment. Anything other than "production" is treated as development.
func ParseEnvironment(s string) Environment {
	if strings.EqualFold(strings.TrimSpace(s), string(Production)) {
		return Production
	}
	return Development
}

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether e is a production build.
func (e Environment) IsProduction() bool {
	return e == Production
}

const (
	// ProductionPublicPath and DevelopmentPublicPath are the asset base paths
	// per environment. They are currently identical.
	ProductionPublicPath  = "/"
	DevelopmentPublicPath = "/"

	IndexPage  = "index"
	IndexEntry = "src/main.js"
	IndexTitle = "FFMpeg WebTools"

	HeaderOpenerPolicy   = "Cross-Origin-Opener-Policy"
	HeaderEmbedderPolicy = "Cross-Origin-Embedder-Policy"
)

// Page describes one generated HTML page and the entry point bundled into it.
type Page struct {
	// Entry is the source file bundling starts from, relative to the project root.
	Entry string `yaml:"entry" json:"entry"`
	// Title is written to the generated page's <title> element.
	Title string `yaml:"title" json:"title"`
	// Filename of the generated HTML document, defaults to "<id>.html".
	Filename string `yaml:"filename,omitempty" json:"filename,omitempty"`
}

// OutputFilename returns the HTML file name generated for the page with the given id.
func (p Page) OutputFilename(id string) string {
	if p.Filename != "" {
		return p.Filename
	}
	return id + ".html"
}

// DevServer holds the settings used only by the development server.
type DevServer struct {
	// Headers are added verbatim to every response.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Host    string            `yaml:"host,omitempty" json:"host,omitempty"`
	Port    int               `yaml:"port,omitempty" json:"port,omitempty"`
}

// Config is the build configuration record.
type Config struct {
	Pages      map[string]Page `yaml:"pages,omitempty" json:"pages,omitempty"`
	PublicPath string          `yaml:"publicPath,omitempty" json:"publicPath,omitempty"`
	DevServer  DevServer       `yaml:"devServer,omitempty" json:"devServer,omitempty"`
	OutputDir  string          `yaml:"outputDir,omitempty" json:"outputDir,omitempty"`
	Minify     *bool           `yaml:"minify,omitempty" json:"minify,omitempty"`
	SourceMap  *bool           `yaml:"sourceMap,omitempty" json:"sourceMap,omitempty"`
}

// Resolve returns the project's build configuration for env. It has no side
// effects and returns freshly allocated maps on every call.
func Resolve(env Environment) Config {
	return Config{
		Pages: map[string]Page{
			IndexPage: {
				Entry: IndexEntry,
				Title: IndexTitle,
			},
		},
		PublicPath: publicPath(env),
		DevServer: DevServer{
			Headers: map[string]string{
				HeaderOpenerPolicy:   "same-origin",
				HeaderEmbedderPolicy: "require-corp",
			},
		},
	}
}

func publicPath(env Environment) string {
	if env.IsProduction() {
		return ProductionPublicPath
	}
	return DevelopmentPublicPath
}

// Defaults returns the settings the bundler and dev server use when the
// project configuration does not override them.
func Defaults(env Environment) Config {
	prod := env.IsProduction()
	return Config{
		Pages:      map[string]Page{},
		PublicPath: "/",
		DevServer: DevServer{
			Headers: map[string]string{},
			Host:    "localhost",
			Port:    8080,
		},
		OutputDir: "dist",
		Minify:    ptr(prod),
		SourceMap: ptr(!prod),
	}
}

// PageIDs returns the page identifiers in sorted order.
func (c Config) PageIDs() []string {
	return slices.Sorted(maps.Keys(c.Pages))
}

// MinifyEnabled reports whether output should be minified, false when unset.
func (c Config) MinifyEnabled() bool {
	return c.Minify != nil && *c.Minify
}

// SourceMapEnabled reports whether linked source maps should be emitted, false when unset.
func (c Config) SourceMapEnabled() bool {
	return c.SourceMap != nil && *c.SourceMap
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Pages = maps.Clone(c.Pages)
	out.DevServer.Headers = maps.Clone(c.DevServer.Headers)
	if c.Minify != nil {
		out.Minify = ptr(*c.Minify)
	}
	if c.SourceMap != nil {
		out.SourceMap = ptr(*c.SourceMap)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
