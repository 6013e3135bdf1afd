package buildpipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageParse reads and parses the pattern text.
	StageParse Stage = "parse"
	// StageAnalyze derives the key-state IR.
	StageAnalyze Stage = "analyze"
	// StageGenerate runs the backends.
	StageGenerate Stage = "generate"
	// StageTests builds vectors and test harnesses.
	StageTests Stage = "tests"
	// StageWrite writes artefacts to disk.
	StageWrite Stage = "write"
	// StageRender reads verifier output and writes HTML pages.
	StageRender Stage = "render"
)

// Stages lists the compile stages in the order they run.
var Stages = []Stage{StageParse, StageAnalyze, StageGenerate, StageTests, StageWrite}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusCached indicates the artefacts came from the cache.
	StatusCached Status = "cached"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the overall pipeline when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Emit sends an event to sink, which may be nil.
func Emit(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

// EmitQueued marks every file as queued.
func EmitQueued(sink ProgressSink, files []string) {
	for _, f := range files {
		Emit(sink, f, "", StatusQueued, nil, 0)
	}
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Add accumulates dur into stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
