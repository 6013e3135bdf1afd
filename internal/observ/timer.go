// Package observ records how long each stage of a pattern compile takes.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed stage.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer collects phases in the order they began. Backends run concurrently,
// so every method is safe for parallel use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End closes the phase at idx; unknown indexes are ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// Phases returns a copy of the recorded phases.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Phase(nil), t.phases...)
}

// Summary formats the phases one per line with a total.
func (t *Timer) Summary() string {
	report := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&b, "  %-12s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-12s %7.2f ms\n", "total", report.TotalMS)
	return b.String()
}

// PhaseReport is a Phase in serialisable form.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report is the serialisable form of a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	phases := t.Phases()
	if len(phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(phases))}
	var total time.Duration
	for i, phase := range phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: millis(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalMS = millis(total)
	return report
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
