package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"noisec/internal/assemble"
	"noisec/internal/backend"
	"noisec/internal/backend/golang"
	"noisec/internal/backend/proverif"
	"noisec/internal/backend/rust"
	"noisec/internal/buildpipeline"
	"noisec/internal/diag"
	"noisec/internal/observ"
	"noisec/internal/parser"
	"noisec/internal/pattern"
	"noisec/internal/sema"
	"noisec/internal/source"
	"noisec/internal/testgen"
	"noisec/internal/vector"
)

// Artifact is one generated file, relative to the output root.
type Artifact struct {
	Path    string `msgpack:"path" json:"path"`
	Backend string `msgpack:"backend" json:"backend"`
	Content []byte `msgpack:"content" json:"-"`
}

// Result holds everything a compile produced. Artifacts is empty unless
// every stage succeeded.
type Result struct {
	Path    string
	Display string
	FileSet *source.FileSet
	FileID  source.FileID
	Bag     *diag.Bag
	Spec    *pattern.Spec
	IR      *sema.IR
	Vector  *vector.Vector

	Artifacts []Artifact
	Cached    bool
	Err       error

	Timer   *observ.Timer
	Timings buildpipeline.Timings
}

// OK reports whether the compile produced artefacts.
func (r *Result) OK() bool { return r != nil && r.Err == nil }

// CompileFile compiles the pattern file at path.
func CompileFile(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.normalize()
	fs := source.NewFileSet()
	if opts.BaseDir != "" {
		fs.SetBaseDir(opts.BaseDir)
	}
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return compile(ctx, fs, id, opts)
}

// CompileText compiles in-memory pattern text; name is used in diagnostics.
func CompileText(ctx context.Context, name string, text []byte, opts Options) (*Result, error) {
	opts.normalize()
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, text)
	return compile(ctx, fs, id, opts)
}

// Check runs only the parser and the analyzer. It backs noisec check and
// noisec parse, and the render pipeline.
func Check(fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	opts.normalize()
	res := newResult(fs, id, opts)
	err := res.frontEnd(opts)
	res.Err = err
	return res, err
}

func newResult(fs *source.FileSet, id source.FileID, opts Options) *Result {
	f := fs.Get(id)
	return &Result{
		Path:    f.Path,
		Display: buildpipeline.DisplayName(f.Path, opts.BaseDir),
		FileSet: fs,
		FileID:  id,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
		Timer:   observ.NewTimer(),
	}
}

func compile(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	res := newResult(fs, id, opts)
	log := opts.Log.WithField("pattern", res.Display)
	err := res.run(ctx, opts, log)
	res.Err = err
	if err != nil {
		res.Artifacts = nil
		log.WithError(err).Debug("compile failed")
	}
	return res, err
}

// stage times fn and reports it to the progress sink.
func (r *Result) stage(opts Options, log logrus.FieldLogger, st buildpipeline.Stage, fn func() error) error {
	log.WithField("stage", st).Debug("stage start")
	buildpipeline.Emit(opts.Progress, r.Display, st, buildpipeline.StatusWorking, nil, 0)
	idx := r.Timer.Begin(string(st))
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	r.Timer.End(idx, "")
	r.Timings.Add(st, elapsed)
	if err != nil {
		buildpipeline.Emit(opts.Progress, r.Display, st, buildpipeline.StatusError, err, elapsed)
	}
	return err
}

func (r *Result) run(ctx context.Context, opts Options, log logrus.FieldLogger) error {
	if err := r.frontEnd(opts); err != nil {
		st := buildpipeline.StageAnalyze
		if r.Spec == nil {
			st = buildpipeline.StageParse
		}
		buildpipeline.Emit(opts.Progress, r.Display, st, buildpipeline.StatusError, err, 0)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := cacheKey(r.FileSet.Get(r.FileID).Content, opts)
	if opts.Cache != nil {
		var payload CachePayload
		hit, err := opts.Cache.Get(key, &payload)
		switch {
		case err != nil:
			log.WithError(err).Warn("artifact cache unreadable, regenerating")
		case hit && payload.Protocol == r.IR.ProtocolName:
			log.WithField("key", key).Debug("cache hit")
			r.Artifacts = payload.Artifacts
			r.Cached = true
			buildpipeline.Emit(opts.Progress, r.Display, buildpipeline.StageGenerate, buildpipeline.StatusCached, nil, 0)
			return nil
		default:
			log.WithField("key", key).Debug("cache miss")
		}
	}

	var outputs [][]assemble.Output
	err := r.stage(opts, log, buildpipeline.StageGenerate, func() error {
		var err error
		outputs, err = generate(ctx, r.IR, opts)
		return err
	})
	if err != nil {
		return err
	}
	if opts.needsVector() {
		err = r.stage(opts, log, buildpipeline.StageTests, func() error {
			harnesses, err := r.tests(opts, outputs)
			outputs = append(outputs, harnesses)
			return err
		})
		if err != nil {
			return err
		}
	}

	for _, group := range outputs {
		for _, o := range group {
			r.Artifacts = append(r.Artifacts, Artifact{Path: o.Path, Backend: backendOf(o.Path), Content: o.Content})
		}
	}
	sort.Slice(r.Artifacts, func(i, j int) bool { return r.Artifacts[i].Path < r.Artifacts[j].Path })

	if opts.Cache != nil {
		payload := &CachePayload{
			Schema:    artifactCacheSchema,
			Pattern:   r.Spec.Name,
			Protocol:  r.IR.ProtocolName,
			Artifacts: r.Artifacts,
		}
		if err := opts.Cache.Put(key, payload); err != nil {
			log.WithError(err).Warn("failed to store artifacts in cache")
		}
	}
	return nil
}

// frontEnd parses and analyzes the pattern. Every diagnostic lands in r.Bag.
func (r *Result) frontEnd(opts Options) error {
	maxErrors, err := safecast.Conv[uint](max(opts.MaxDiagnostics, 0))
	if err != nil {
		panic(fmt.Errorf("maxDiagnostics overflow: %w", err))
	}
	reporter := &diag.BagReporter{Bag: r.Bag}

	parse := r.Timer.Begin(string(buildpipeline.StageParse))
	buildpipeline.Emit(opts.Progress, r.Display, buildpipeline.StageParse, buildpipeline.StatusWorking, nil, 0)
	r.Spec, err = parser.ParseFile(r.FileSet, r.FileID, parser.Options{Reporter: reporter, MaxErrors: maxErrors})
	r.Timer.End(parse, "")
	if err != nil {
		return err
	}

	analyze := r.Timer.Begin(string(buildpipeline.StageAnalyze))
	buildpipeline.Emit(opts.Progress, r.Display, buildpipeline.StageAnalyze, buildpipeline.StatusWorking, nil, 0)
	r.IR, err = sema.Analyze(r.Spec, sema.Options{Reporter: reporter})
	r.Timer.End(analyze, r.Spec.Name)
	r.Bag.Sort()
	return err
}

// generate runs the selected backends concurrently. They only read ir and
// write disjoint outputs.
func generate(ctx context.Context, ir *sema.IR, opts Options) ([][]assemble.Output, error) {
	type job func() ([]assemble.Output, error)
	var jobs []job
	for _, kind := range opts.Backends {
		switch kind {
		case backend.Model:
			for _, a := range opts.Attackers {
				jobs = append(jobs, func() ([]assemble.Output, error) {
					fs, err := proverif.Generate(ir, proverif.Options{Attacker: a})
					if err != nil {
						return nil, err
					}
					out, err := proverif.Assemble(ir, a, fs)
					return []assemble.Output{out}, err
				})
			}
		case backend.Go:
			jobs = append(jobs, func() ([]assemble.Output, error) {
				fs, err := golang.Generate(ir)
				if err != nil {
					return nil, err
				}
				return golang.Assemble(ir, fs)
			})
		case backend.Rust:
			jobs = append(jobs, func() ([]assemble.Output, error) {
				fs, err := rust.Generate(ir)
				if err != nil {
					return nil, err
				}
				return rust.Assemble(ir, fs)
			})
		default:
			return nil, fmt.Errorf("unsupported backend %s", kind)
		}
	}

	// Each goroutine owns its index; no mutex needed.
	outputs := make([][]assemble.Output, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, run := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := run()
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// tests computes the vector and the harness of each implementation backend
// found in outputs.
func (r *Result) tests(opts Options, outputs [][]assemble.Output) ([]assemble.Output, error) {
	v, err := vector.Compute(r.IR, opts.fixture())
	if err != nil {
		return nil, fmt.Errorf("vector: %w", err)
	}
	r.Vector = v

	sources := make(map[string]string)
	for _, group := range outputs {
		for _, o := range group {
			sources[o.Path] = string(o.Content)
		}
	}
	goPath, rustPath := testgen.Paths(r.IR)
	var harnesses []assemble.Output
	if src, ok := sources[golang.SourcePath(r.IR)]; ok {
		text, err := testgen.Go(r.IR, src, v)
		if err != nil {
			return nil, err
		}
		harnesses = append(harnesses, assemble.Output{Path: goPath, Content: []byte(text)})
	}
	if src, ok := sources[rust.SourcePath(r.IR)]; ok {
		text, err := testgen.Rust(r.IR, src, v)
		if err != nil {
			return nil, err
		}
		harnesses = append(harnesses, assemble.Output{Path: rustPath, Content: []byte(text)})
	}
	return harnesses, nil
}

func backendOf(path string) string {
	switch {
	case strings.HasSuffix(path, ".pv"):
		return backend.Model.String()
	case strings.HasPrefix(path, "go/"):
		return backend.Go.String()
	case strings.HasPrefix(path, "rs/"):
		return backend.Rust.String()
	}
	return ""
}
