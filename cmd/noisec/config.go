package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"noisec/internal/backend"
	"noisec/internal/backend/proverif"
	"noisec/internal/catalog"
	"noisec/internal/driver"
	"noisec/internal/project"
	"noisec/internal/source"
)

// loadManifest honours --config, otherwise searches upwards from the working
// directory. A missing manifest is not an error.
func loadManifest(cmd *cobra.Command) (*project.Manifest, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return project.LoadFile(path)
	}
	m, _, err := project.Load(".")
	return m, err
}

// compileOptions builds driver options from the manifest and the flags of
// cmd; flags win.
func compileOptions(cmd *cobra.Command) (driver.Options, *project.Manifest, error) {
	manifest, err := loadManifest(cmd)
	if err != nil {
		return driver.Options{}, nil, err
	}
	var cfg *project.Config
	if manifest != nil {
		cfg = &manifest.Config
		logrus.WithField("manifest", manifest.Path).Debug("using project manifest")
	}
	opts, err := driver.OptionsFromConfig(cfg)
	if err != nil {
		return opts, nil, err
	}
	opts.Log = logrus.StandardLogger()

	if opts.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return opts, nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	flags := cmd.Flags()
	if f := flags.Lookup("backend"); f != nil && f.Changed {
		names, _ := flags.GetStringSlice("backend")
		opts.Backends = nil
		for _, n := range names {
			k, err := backend.ParseKind(n)
			if err != nil {
				return opts, nil, err
			}
			opts.Backends = append(opts.Backends, k)
		}
	}
	if f := flags.Lookup("attacker"); f != nil && f.Changed {
		names, _ := flags.GetStringSlice("attacker")
		opts.Attackers = nil
		for _, n := range names {
			a, err := proverif.ParseAttacker(n)
			if err != nil {
				return opts, nil, err
			}
			opts.Attackers = append(opts.Attackers, a)
		}
	}
	if f := flags.Lookup("no-tests"); f != nil && f.Changed {
		noTests, _ := flags.GetBool("no-tests")
		opts.Tests = !noTests
	}
	if f := flags.Lookup("jobs"); f != nil && f.Changed {
		opts.Jobs, _ = flags.GetInt("jobs")
	}

	cacheOn := cfg != nil && cfg.Cache.Enabled
	if f := flags.Lookup("cache"); f != nil && f.Changed {
		cacheOn, _ = flags.GetBool("cache")
	}
	if cacheOn {
		var cacheDir string
		if cfg != nil && cfg.Cache.Dir != "" {
			cacheDir = manifest.Resolve(cfg.Cache.Dir)
		}
		if opts.Cache, err = openCache(cacheDir); err != nil {
			// кэш не обязателен
			logrus.WithError(err).Warn("artifact cache disabled")
		}
	}
	return opts, manifest, nil
}

func openCache(dir string) (*driver.ArtifactCache, error) {
	if dir != "" {
		return driver.NewArtifactCache(dir)
	}
	return driver.OpenArtifactCache("noisec")
}

// outputDir picks --out, then the manifest key, then fallback.
func outputDir(cmd *cobra.Command, manifest *project.Manifest, fromManifest func(*project.Config) string, fallback string) (string, error) {
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return "", fmt.Errorf("failed to get out flag: %w", err)
	}
	if out != "" {
		return out, nil
	}
	if manifest != nil {
		if v := fromManifest(&manifest.Config); v != "" {
			return manifest.Resolve(v), nil
		}
	}
	return fallback, nil
}

type inputKind uint8

const (
	inputFile inputKind = iota
	inputDir
	inputCatalog
)

// input is a command argument: a pattern file, a directory of them, or the
// name of a built-in pattern prefixed with "builtin:".
type input struct {
	kind inputKind
	path string
	name string
}

func resolveInput(arg string) (input, error) {
	if name, ok := strings.CutPrefix(arg, "builtin:"); ok {
		if _, found := catalog.Source(name); !found && name != "all" {
			return input{}, fmt.Errorf("no built-in pattern %q (see noisec catalog)", name)
		}
		return input{kind: inputCatalog, name: name}, nil
	}
	st, err := os.Stat(arg)
	if err != nil {
		return input{}, fmt.Errorf("failed to stat path: %w", err)
	}
	if st.IsDir() {
		return input{kind: inputDir, path: arg}, nil
	}
	if filepath.Ext(arg) != driver.PatternExt {
		logrus.WithField("path", arg).Debugf("file does not end in %s", driver.PatternExt)
	}
	return input{kind: inputFile, path: arg}, nil
}

// addInput adds a single-pattern input to fs.
func addInput(fs *source.FileSet, in input) (source.FileID, error) {
	if in.kind == inputCatalog {
		src, _ := catalog.Source(in.name)
		return fs.AddVirtual(catalog.Path(in.name), []byte(src)), nil
	}
	return fs.Load(in.path)
}
