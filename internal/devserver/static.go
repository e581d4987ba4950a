package devserver

import (
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/webtools/internal/assets"
)

// staticHandler serves files from the output directory. Files known to the
// manifest get an ETag, and a precompressed .zst sibling is preferred when
// the client accepts zstd.
type staticHandler struct {
	assets Assets
	files  http.Handler
}

func newStaticHandler(a Assets) *staticHandler {
	return &staticHandler{
		assets: a,
		files:  http.FileServer(http.Dir(a.OutputDir())),
	}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	w.Header().Set("Cache-Control", "no-cache")

	asset, ok := h.assets.Lookup(name)
	if !ok {
		h.files.ServeHTTP(w, r)
		return
	}

	if asset.Compressed {
		w.Header().Add("Vary", "Accept-Encoding")
		if acceptsEncoding(r, "zstd") && h.serveCompressed(w, r, name, asset) {
			return
		}
	}

	// FileServer and ServeContent answer If-None-Match with 304 from this header
	w.Header().Set("ETag", etag(asset, ""))
	h.files.ServeHTTP(w, r)
}

// etag returns a strong validator for one representation of asset.
func etag(asset assets.Asset, encoding string) string {
	if encoding == "" {
		return `"` + asset.Checksum + `"`
	}
	return `"` + asset.Checksum + "-" + encoding + `"`
}

func (h *staticHandler) serveCompressed(w http.ResponseWriter, r *http.Request, name string, asset assets.Asset) bool {
	f, err := os.Open(filepath.Join(h.assets.OutputDir(), filepath.FromSlash(name)) + ".zst")
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Str("asset", name).Msg("Compressed asset missing, serving original")
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}

	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	w.Header().Set("Content-Encoding", "zstd")
	w.Header().Set("ETag", etag(asset, "zstd"))
	http.ServeContent(w, r, name, info.ModTime(), f)
	return true
}

func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		token, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(token), encoding) {
			continue
		}
		// q=0 means not acceptable
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}
