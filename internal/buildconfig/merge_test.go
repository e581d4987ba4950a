package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerge_overridePrecedence(t *testing.T) {
	base := Defaults(Development)
	override := Config{
		PublicPath: "/static/",
		OutputDir:  "build",
		Minify:     ptr(true),
		DevServer:  DevServer{Port: 9000},
	}

	merged := Merge(base, override)

	require.Equal(t, "/static/", merged.PublicPath)
	require.Equal(t, "build", merged.OutputDir)
	require.True(t, merged.MinifyEnabled())
	require.True(t, merged.SourceMapEnabled(), "unset override keeps base value")
	require.Equal(t, 9000, merged.DevServer.Port)
	require.Equal(t, "localhost", merged.DevServer.Host)
}

func TestMerge_pagesMergePerKey(t *testing.T) {
	base := Resolve(Production)
	override := Config{Pages: map[string]Page{
		"about": {Entry: "src/about.js", Title: "About"},
	}}

	merged := Merge(base, override)
	require.Len(t, merged.Pages, 2)
	require.Equal(t, IndexTitle, merged.Pages["index"].Title)
	require.Equal(t, "About", merged.Pages["about"].Title)

	replaced := Merge(base, Config{Pages: map[string]Page{
		"index": {Entry: "src/app.js", Title: "App"},
	}})
	require.Len(t, replaced.Pages, 1)
	require.Equal(t, "src/app.js", replaced.Pages["index"].Entry)
}

func TestMerge_headersCanonicalised(t *testing.T) {
	base := Resolve(Development)
	override := Config{DevServer: DevServer{Headers: map[string]string{
		"cross-origin-embedder-policy": "credentialless",
		"x-frame-options":              "DENY",
	}}}

	merged := Merge(base, override)
	require.Equal(t, map[string]string{
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Embedder-Policy": "credentialless",
		"X-Frame-Options":              "DENY",
	}, merged.DevServer.Headers)
}

func TestMerge_doesNotMutateInputs(t *testing.T) {
	base := Merge(Defaults(Production), Resolve(Production))
	override := Config{
		Pages:     map[string]Page{"about": {Entry: "src/about.js", Title: "About"}},
		DevServer: DevServer{Headers: map[string]string{"X-Test": "1"}},
		Minify:    ptr(false),
	}

	merged := Merge(base, override)
	*merged.Minify = true
	merged.Pages["extra"] = Page{}
	merged.DevServer.Headers["X-Extra"] = "1"

	require.Len(t, base.Pages, 1)
	require.Len(t, base.DevServer.Headers, 2)
	require.True(t, base.MinifyEnabled())
	require.False(t, *override.Minify)
	require.Len(t, override.Pages, 1)
	require.Len(t, override.DevServer.Headers, 1)
}

func TestMerge_emptyOverrideIsIdentity(t *testing.T) {
	base := Merge(Defaults(Production), Resolve(Production))
	require.Equal(t, base, Merge(base, Config{}))
}

func TestMerge_nilBase(t *testing.T) {
	merged := Merge(Config{}, Resolve(Production))
	require.Equal(t, Resolve(Production), merged)
}
