package assets

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
)

const (
	manifestName = "manifest.json"

	// outputs smaller than this are not worth precompressing
	compressThreshold = 1024
)

var compressibleExts = map[string]bool{
	".js":   true,
	".css":  true,
	".html": true,
	".map":  true,
	".json": true,
	".svg":  true,
	".wasm": true,
}

// Manifest returns a copy of the asset manifest from the latest build.
func (p *Pipeline) Manifest() (Manifest, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.manifest == nil {
		return nil, ErrNotBuilt
	}
	out := make(Manifest, len(p.manifest))
	for k, v := range p.manifest {
		out[k] = v
	}
	return out, nil
}

// Lookup returns the manifest entry for a path relative to the output directory.
func (p *Pipeline) Lookup(name string) (Asset, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	asset, ok := p.manifest[name]
	return asset, ok
}

func (p *Pipeline) writeManifest(files map[string][]byte) (Manifest, error) {
	var enc *zstd.Encoder
	if p.config.Compress {
		var err error
		enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, fmt.Errorf("failed to create encoder: %w", err)
		}
		defer enc.Close()
	}

	manifest := make(Manifest, len(files))
	for name, contents := range files {
		asset := Asset{
			Checksum: Checksum(contents),
			Size:     len(contents),
		}

		if enc != nil && len(contents) >= compressThreshold && compressibleExts[path.Ext(name)] {
			compressed := enc.EncodeAll(contents, nil)
			dst := filepath.Join(p.config.outputDir(), filepath.FromSlash(name)) + ".zst"
			if err := os.WriteFile(dst, compressed, 0600); err != nil {
				return nil, fmt.Errorf("failed to write compressed asset %s: %w", name, err)
			}
			asset.Compressed = true
		}

		manifest[name] = asset
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.config.outputDir(), manifestName), data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	return manifest, nil
}

// Checksum returns the base58 encoded CRC64-NVME checksum of data.
func Checksum(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], h.Sum64())
	return base58.Encode(sum[:])
}
