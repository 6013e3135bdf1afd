package diag

import (
	"fmt"
	"sort"
)

// Bag collects diagnostics up to a limit.
type Bag struct {
	items []*Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	if max <= 0 {
		max = 1
	}
	return &Bag{
		items: make([]*Diagnostic, 0, min(max, 64)),
		max:   max,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d *Diagnostic) bool {
	if d == nil || len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() int {
	return b.max
}

// HasErrors reports whether at least one diagnostic is SevError.
func (b *Bag) HasErrors() bool {
	return b.First(SevError) != nil
}

// HasWarnings reports whether at least one diagnostic is SevWarning or worse.
func (b *Bag) HasWarnings() bool {
	return b.First(SevWarning) != nil
}

// First returns the earliest diagnostic with severity >= sev.
func (b *Bag) First(sev Severity) *Diagnostic {
	if b == nil {
		return nil
	}
	for _, d := range b.items {
		if d.Severity >= sev {
			return d
		}
	}
	return nil
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
func (b *Bag) Items() []*Diagnostic {
	return b.items
}

// Merge appends other's diagnostics, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if total := len(b.items) + len(other.items); total > b.max {
		b.max = total
	}
	b.items = append(b.items, other.items...)
}

// Sort orders by file, start, end, severity (desc) and code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// простая дедупликация (по Code+Primary)
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s", d.Code.ID(), d.Primary.String())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}
