// Package project finds and decodes the noisec.toml project manifest.
package project

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"noisec/internal/backend"
	"noisec/internal/backend/proverif"
)

// Config is the decoded manifest. Paths are relative to the manifest.
type Config struct {
	Generate GenerateConfig `toml:"generate"`
	Render   RenderConfig   `toml:"render"`
	Vectors  VectorsConfig  `toml:"vectors"`
	Cache    CacheConfig    `toml:"cache"`
}

type GenerateConfig struct {
	Backends  []string `toml:"backends"`
	Attackers []string `toml:"attackers"`
	Tests     bool     `toml:"tests"`
	Out       string   `toml:"out"`
	Jobs      int      `toml:"jobs,omitempty"`
}

type RenderConfig struct {
	Out string `toml:"out"`
}

// VectorsConfig overrides the fixed test material. Empty fields keep the
// defaults; values are hex.
type VectorsConfig struct {
	Prologue string `toml:"prologue,omitempty"`
	PSK      string `toml:"psk,omitempty"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir,omitempty"`
}

// Manifest is a loaded noisec.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the configuration written by noisec init.
func Default() Config {
	return Config{
		Generate: GenerateConfig{
			Backends:  []string{"pv", "go", "rs"},
			Attackers: []string{string(proverif.Active), string(proverif.Passive)},
			Tests:     true,
			Out:       "build",
		},
		Render: RenderConfig{Out: "html"},
	}
}

// Load finds noisec.toml above startDir and decodes it. ok is false when
// there is no manifest.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// LoadFile decodes the manifest at path. Keys missing from the file keep
// their Default values.
func LoadFile(path string) (*Manifest, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

// Validate checks names and hex values.
func (c *Config) Validate() error {
	var errs []error
	for _, b := range c.Generate.Backends {
		if _, err := backend.ParseKind(b); err != nil {
			errs = append(errs, fmt.Errorf("[generate].backends: %w", err))
		}
	}
	for _, a := range c.Generate.Attackers {
		if _, err := proverif.ParseAttacker(a); err != nil {
			errs = append(errs, fmt.Errorf("[generate].attackers: %w", err))
		}
	}
	if c.Generate.Jobs < 0 {
		errs = append(errs, fmt.Errorf("[generate].jobs must not be negative"))
	}
	if _, err := hex.DecodeString(c.Vectors.Prologue); err != nil {
		errs = append(errs, fmt.Errorf("[vectors].prologue: %w", err))
	}
	if c.Vectors.PSK != "" {
		if b, err := hex.DecodeString(c.Vectors.PSK); err != nil {
			errs = append(errs, fmt.Errorf("[vectors].psk: %w", err))
		} else if len(b) != 32 {
			errs = append(errs, fmt.Errorf("[vectors].psk: want 32 bytes, got %d", len(b)))
		}
	}
	return errors.Join(errs...)
}

// Backends returns the configured backend kinds.
func (c *Config) Backends() ([]backend.Kind, error) {
	out := make([]backend.Kind, 0, len(c.Generate.Backends))
	for _, b := range c.Generate.Backends {
		k, err := backend.ParseKind(b)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// Attackers returns the configured attacker models.
func (c *Config) Attackers() ([]proverif.Attacker, error) {
	out := make([]proverif.Attacker, 0, len(c.Generate.Attackers))
	for _, a := range c.Generate.Attackers {
		at, err := proverif.ParseAttacker(a)
		if err != nil {
			return nil, err
		}
		out = append(out, at)
	}
	return out, nil
}

// Resolve makes p absolute against the manifest directory.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// Encode renders cfg as TOML with a short header.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# noisec project manifest\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault creates dir/noisec.toml with Default. An existing manifest is
// never overwritten.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("project already initialized: %s exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	data, err := Encode(Default())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
