package buildconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration for env: the tool defaults, then
// the project configuration from Resolve, then the optional YAML override
// file at path. An empty path skips the override file.
func Load(env Environment, path string) (Config, error) {
	cfg := Merge(Defaults(env), Resolve(env))
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config overrides: %w", err)
	}

	override, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config overrides %s: %w", path, err)
	}

	return Merge(cfg, override), nil
}

// Decode reads a YAML override document. Unknown keys are rejected and an
// empty document decodes to an empty Config.
func Decode(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as YAML.
func Encode(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
