// Package driver runs the compiler on pattern files: front end, backends,
// test generation and artefact output, plus the render pipeline over
// verifier output.
package driver

import (
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"noisec/internal/backend"
	"noisec/internal/backend/proverif"
	"noisec/internal/buildpipeline"
	"noisec/internal/project"
	"noisec/internal/vector"
)

// Options configure a compile. The zero value generates everything with
// the default fixture.
type Options struct {
	Backends  []backend.Kind
	Attackers []proverif.Attacker
	// Tests adds the generated test harnesses of the implementation backends.
	Tests bool
	// Fixture is the key material for vectors; nil means vector.DefaultFixture.
	Fixture *vector.Fixture

	MaxDiagnostics int
	// Jobs bounds directory compiles; <= 0 means GOMAXPROCS.
	Jobs int
	// BaseDir is what progress and log output show paths relative to.
	BaseDir string

	Cache    *ArtifactCache
	Progress buildpipeline.ProgressSink
	Log      logrus.FieldLogger
}

// DefaultOptions generates every backend, both attacker models and tests.
func DefaultOptions() Options {
	return Options{
		Backends:       []backend.Kind{backend.Model, backend.Go, backend.Rust},
		Attackers:      append([]proverif.Attacker(nil), proverif.Attackers...),
		Tests:          true,
		MaxDiagnostics: 100,
	}
}

// OptionsFromConfig applies a manifest on top of DefaultOptions.
func OptionsFromConfig(cfg *project.Config) (Options, error) {
	opts := DefaultOptions()
	if cfg == nil {
		return opts, nil
	}
	var err error
	if len(cfg.Generate.Backends) > 0 {
		if opts.Backends, err = cfg.Backends(); err != nil {
			return opts, err
		}
	}
	if len(cfg.Generate.Attackers) > 0 {
		if opts.Attackers, err = cfg.Attackers(); err != nil {
			return opts, err
		}
	}
	opts.Tests = cfg.Generate.Tests
	opts.Jobs = cfg.Generate.Jobs
	if cfg.Vectors.Prologue != "" || cfg.Vectors.PSK != "" {
		fx := vector.DefaultFixture()
		if cfg.Vectors.Prologue != "" {
			if fx.Prologue, err = hex.DecodeString(cfg.Vectors.Prologue); err != nil {
				return opts, fmt.Errorf("[vectors].prologue: %w", err)
			}
		}
		if cfg.Vectors.PSK != "" {
			b, err := hex.DecodeString(cfg.Vectors.PSK)
			if err != nil || len(b) != len(fx.PSK) {
				return opts, fmt.Errorf("[vectors].psk: want %d hex bytes", len(fx.PSK))
			}
			copy(fx.PSK[:], b)
		}
		opts.Fixture = &fx
	}
	return opts, nil
}

func (o *Options) normalize() {
	if len(o.Backends) == 0 && len(o.Attackers) == 0 {
		d := DefaultOptions()
		o.Backends, o.Attackers = d.Backends, d.Attackers
	}
	if len(o.Attackers) == 0 {
		o.Attackers = []proverif.Attacker{proverif.Active}
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
}

func (o *Options) fixture() vector.Fixture {
	if o.Fixture != nil {
		return *o.Fixture
	}
	return vector.DefaultFixture()
}

func (o *Options) wants(kind backend.Kind) bool {
	for _, k := range o.Backends {
		if k == kind {
			return true
		}
	}
	return false
}

// needsVector reports whether any harness will be generated.
func (o *Options) needsVector() bool {
	return o.Tests && (o.wants(backend.Go) || o.wants(backend.Rust))
}
