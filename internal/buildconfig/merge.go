package buildconfig

import (
	"net/http"
)

// Merge layers override on top of base and returns the result, neither input
// is modified.
//
// Scalar fields in override win when set: a non-empty string, a non-nil
// pointer or a non-zero port. Pages and dev server headers merge per key, so
// a key in override replaces the same key in base and every other base key
// is kept. Header names are canonicalised first, "cross-origin-opener-policy"
// and "Cross-Origin-Opener-Policy" are the same header.
func Merge(base, override Config) Config {
	out := base.Clone()

	if len(override.Pages) > 0 {
		if out.Pages == nil {
			out.Pages = make(map[string]Page, len(override.Pages))
		}
		for id, page := range override.Pages {
			out.Pages[id] = page
		}
	}

	if override.PublicPath != "" {
		out.PublicPath = override.PublicPath
	}
	if override.OutputDir != "" {
		out.OutputDir = override.OutputDir
	}
	if override.Minify != nil {
		out.Minify = ptr(*override.Minify)
	}
	if override.SourceMap != nil {
		out.SourceMap = ptr(*override.SourceMap)
	}

	out.DevServer.Headers = mergeHeaders(base.DevServer.Headers, override.DevServer.Headers)
	if override.DevServer.Host != "" {
		out.DevServer.Host = override.DevServer.Host
	}
	if override.DevServer.Port != 0 {
		out.DevServer.Port = override.DevServer.Port
	}

	return out
}

func mergeHeaders(base, override map[string]string) map[string]string {
	if base == nil && override == nil {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for name, value := range base {
		out[http.CanonicalHeaderKey(name)] = value
	}
	for name, value := range override {
		out[http.CanonicalHeaderKey(name)] = value
	}
	return out
}
