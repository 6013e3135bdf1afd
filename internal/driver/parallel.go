package driver

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"noisec/internal/buildpipeline"
	"noisec/internal/catalog"
)

// PatternExt is the extension of pattern files.
const PatternExt = ".noise"

// ListPatternFiles returns every pattern file under dir, sorted.
func ListPatternFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, PatternExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// CompileFiles compiles files in parallel, at most opts.Jobs at a time. A
// pattern that fails only marks its own Result; the returned error is for
// cancellation. Results are in the order of files.
func CompileFiles(ctx context.Context, files []string, opts Options) ([]*Result, error) {
	opts.normalize()
	results := make([]*Result, len(files))
	if len(files) == 0 {
		return results, nil
	}
	display := make([]string, len(files))
	for i, f := range files {
		display[i] = buildpipeline.DisplayName(f, opts.BaseDir)
	}
	buildpipeline.EmitQueued(opts.Progress, display)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.Jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := CompileFile(gctx, path, opts)
			if res == nil {
				// load failed before a FileSet existed
				res = &Result{Path: path, Display: display[i], Err: err}
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			status := buildpipeline.StatusDone
			if err != nil {
				status = buildpipeline.StatusError
			}
			buildpipeline.Emit(opts.Progress, display[i], "", status, err, res.Timings.Sum(buildpipeline.Stages...))
			// индекс i уникален, мьютекс не нужен
			results[i] = res
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// CompileDir compiles every pattern file under dir.
func CompileDir(ctx context.Context, dir string, opts Options) ([]*Result, error) {
	files, err := ListPatternFiles(dir)
	if err != nil {
		return nil, err
	}
	if opts.BaseDir == "" {
		opts.BaseDir = dir
	}
	return CompileFiles(ctx, files, opts)
}

// CompileCatalog compiles the named patterns of the built-in catalog; no
// names means all of them.
func CompileCatalog(ctx context.Context, names []string, opts Options) ([]*Result, error) {
	opts.normalize()
	if len(names) == 0 {
		names = catalog.Names()
	}
	results := make([]*Result, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.Jobs, max(len(names), 1)))
	for i, name := range names {
		g.Go(func() error {
			src, ok := catalog.Source(name)
			if !ok {
				results[i] = &Result{Path: name, Display: name, Err: errors.New("unknown catalog pattern " + name)}
				return nil
			}
			res, err := CompileText(gctx, catalog.Path(name), []byte(src), opts)
			if errors.Is(err, context.Canceled) {
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// Failed counts results that did not compile.
func Failed(results []*Result) int {
	n := 0
	for _, r := range results {
		if r == nil || r.Err != nil {
			n++
		}
	}
	return n
}
