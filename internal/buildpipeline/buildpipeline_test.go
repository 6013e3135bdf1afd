package buildpipeline

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDisplayFiles(t *testing.T) {
	base := t.TempDir()
	got := DisplayFiles([]string{
		filepath.Join(base, "b", "XX.noise"),
		filepath.Join(base, "NN.noise"),
		filepath.Join(base, "NN.noise"),
		"",
	}, base)
	want := []string{"NN.noise", "b/XX.noise"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DisplayFiles = %v, want %v", got, want)
	}
}

func TestDisplayNameOutsideBase(t *testing.T) {
	base := t.TempDir()
	other := filepath.Join(filepath.Dir(base), "elsewhere", "IK.noise")
	if got := DisplayName(other, base); got != filepath.ToSlash(other) {
		t.Fatalf("DisplayName = %q", got)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	EmitQueued(&r, []string{"a", "b"})
	Emit(&r, "a", StageParse, StatusWorking, nil, 0)
	boom := errors.New("boom")
	Emit(&r, "a", StageAnalyze, StatusError, boom, time.Millisecond)

	if n := len(r.Events()); n != 4 {
		t.Fatalf("recorded %d events, want 4", n)
	}
	last, ok := r.Last("a")
	if !ok || last.Status != StatusError || !errors.Is(last.Err, boom) {
		t.Fatalf("Last(a) = %+v", last)
	}
	if last, _ := r.Last("b"); last.Status != StatusQueued {
		t.Fatalf("Last(b) = %+v", last)
	}
	if _, ok := r.Last("c"); ok {
		t.Fatal("unexpected event for c")
	}
	Emit(nil, "a", StageParse, StatusDone, nil, 0)
}

func TestTimings(t *testing.T) {
	var tm Timings
	if tm.Has(StageParse) {
		t.Fatal("empty timings report a stage")
	}
	tm.Set(StageParse, time.Millisecond)
	tm.Add(StageGenerate, 2*time.Millisecond)
	tm.Add(StageGenerate, 3*time.Millisecond)
	if got := tm.Duration(StageGenerate); got != 5*time.Millisecond {
		t.Fatalf("generate = %v", got)
	}
	if got := tm.Sum(Stages...); got != 6*time.Millisecond {
		t.Fatalf("sum = %v", got)
	}
	var nilT *Timings
	nilT.Set(StageParse, time.Second)
}
