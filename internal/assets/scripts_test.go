package assets

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/webtools/internal/buildconfig"
)

func newTestPipeline(t *testing.T, publicPath string) *Pipeline {
	t.Helper()

	p, err := New(Config{
		Root:       "/project",
		Mode:       "development",
		OutputDir:  "dist",
		PublicPath: publicPath,
		Pages: map[string]buildconfig.Page{
			"index": {Entry: "src/main.js", Title: "FFMpeg WebTools"},
		},
	})
	require.NoError(t, err)
	return p
}

func testMetadata() *BuildMetadata {
	return &BuildMetadata{Outputs: map[string]OutputInfo{
		"dist/js/index-AAAA.js": {
			EntryPoint: "src/main.js",
			CSSBundle:  "dist/js/index-AAAA.css",
			Imports: []ImportInfo{
				{Path: "dist/js/chunk-BBBB.js", Kind: "import-statement"},
				{Path: "dist/js/probe-CCCC.js", Kind: "dynamic-import"},
				{Path: "dist/js/chunk-DDDD.js", Kind: "import-statement"},
			},
		},
		"dist/js/chunk-BBBB.js": {
			Imports: []ImportInfo{
				{Path: "dist/js/chunk-DDDD.js", Kind: "import-statement"},
				{Path: "dist/js/chunk-EEEE.js", Kind: "import-statement"},
			},
		},
		"dist/js/chunk-DDDD.js": {},
		"dist/js/chunk-EEEE.js": {},
		"dist/js/probe-CCCC.js": {},
		"dist/js/index-AAAA.css": {
			EntryPoint: "src/main.js",
		},
	}}
}

func TestLoadScripts_notBuilt(t *testing.T) {
	p := newTestPipeline(t, "/")

	_, _, err := p.LoadScripts("src/main.js")
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestLoadScripts_order(t *testing.T) {
	p := newTestPipeline(t, "/")
	p.metadata = testMetadata()

	scripts, entry, err := p.LoadScripts("./src/main.js")
	require.NoError(t, err)
	require.Equal(t, "/js/index-AAAA.js", entry)
	require.Equal(t, []string{
		"/js/index-AAAA.js",
		"/js/chunk-BBBB.js",
		"/js/chunk-DDDD.js",
		"/js/chunk-EEEE.js",
	}, scripts)
}

func TestLoadScripts_unknownEntry(t *testing.T) {
	p := newTestPipeline(t, "/")
	p.metadata = testMetadata()

	_, _, err := p.LoadScripts("src/other.js")
	require.Error(t, err)
}

func TestRenderPage(t *testing.T) {
	tests := []struct {
		name       string
		publicPath string
		entry      string
		style      string
	}{
		{name: "root", publicPath: "/", entry: `src="/js/index-AAAA.js"`, style: `href="/js/index-AAAA.css"`},
		{name: "sub path", publicPath: "/webtools/", entry: `src="/webtools/js/index-AAAA.js"`, style: `href="/webtools/js/index-AAAA.css"`},
		{name: "relative", publicPath: "./", entry: `src="./js/index-AAAA.js"`, style: `href="./js/index-AAAA.css"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, tt.publicPath)

			html, err := p.renderPage(testMetadata(), "index", "src/main.js", "FFMpeg WebTools")
			require.NoError(t, err)

			doc := string(html)
			require.Contains(t, doc, "<title>FFMpeg WebTools</title>")
			require.Contains(t, doc, `<script type="module" `+tt.entry+`></script>`)
			require.Contains(t, doc, `<link rel="stylesheet" `+tt.style+`>`)
			require.Contains(t, doc, `rel="modulepreload"`)
			require.NotContains(t, doc, "probe-CCCC")
			require.Contains(t, doc, `<div id="app"></div>`)
		})
	}
}

func TestRenderPage_escapesTitle(t *testing.T) {
	p := newTestPipeline(t, "/")

	html, err := p.renderPage(testMetadata(), "index", "src/main.js", "<b>Tools</b>")
	require.NoError(t, err)
	require.Contains(t, string(html), "<title>&lt;b&gt;Tools&lt;/b&gt;</title>")
}

func TestHandler(t *testing.T) {
	p := newTestPipeline(t, "/")

	t.Run("not built", func(t *testing.T) {
		w := httptest.NewRecorder()
		p.Handler("index").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)
	})

	p.pages = map[string][]byte{"index": []byte("<html></html>")}

	t.Run("built page", func(t *testing.T) {
		w := httptest.NewRecorder()
		p.Handler("index").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		require.Equal(t, "<html></html>", w.Body.String())
	})

	t.Run("unknown page", func(t *testing.T) {
		w := httptest.NewRecorder()
		p.Handler("missing").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing.html", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
