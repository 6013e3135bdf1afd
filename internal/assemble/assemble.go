// Package assemble fills skeleton templates with generated fragments.
package assemble

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"noisec/internal/backend"
	"noisec/internal/diag"
)

var markerRe = regexp.MustCompile(`\$NOISEC_([A-Z0-9_]+)\$`)

// Marker is the placeholder text of slot.
func Marker(slot backend.Slot) string {
	return "$NOISEC_" + strings.ToUpper(string(slot)) + "$"
}

func slotOf(marker string) backend.Slot {
	m := markerRe.FindStringSubmatch(marker)
	return backend.Slot(strings.ToLower(m[1]))
}

// File is one artefact to produce.
type File struct {
	Path     string
	Template string
}

// Bundle is the set of files filled from one fragment map.
type Bundle struct {
	Backend backend.Kind
	Files   []File
	// Repeatable slots may occur any number of times; every other slot
	// must occur exactly once across the bundle.
	Repeatable []backend.Slot
}

// Output is an assembled file.
type Output struct {
	Path    string
	Content []byte
}

// Assemble validates markers against fragments and substitutes them.
// Every marker needs a fragment and every fragment needs a marker.
func Assemble(b Bundle, fragments map[backend.Slot]string) ([]Output, error) {
	repeatable := make(map[backend.Slot]bool, len(b.Repeatable))
	for _, s := range b.Repeatable {
		repeatable[s] = true
	}

	counts := make(map[backend.Slot]int)
	for _, f := range b.Files {
		for _, mk := range markerRe.FindAllString(f.Template, -1) {
			slot := slotOf(mk)
			if _, ok := fragments[slot]; !ok {
				return nil, backend.Preconditionf(b.Backend, diag.GenSlotMissing,
					"%s: no fragment for marker %s", f.Path, mk)
			}
			counts[slot]++
		}
	}

	slots := make([]backend.Slot, 0, len(fragments))
	for s := range fragments {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	for _, s := range slots {
		switch n := counts[s]; {
		case n == 0:
			return nil, backend.Preconditionf(b.Backend, diag.GenMarkerMissing,
				"fragment %s has no marker %s", s, Marker(s))
		case n > 1 && !repeatable[s]:
			return nil, backend.Preconditionf(b.Backend, diag.GenSlotDuplicate,
				"marker %s occurs %d times", Marker(s), n)
		}
	}

	out := make([]Output, 0, len(b.Files))
	for _, f := range b.Files {
		text := markerRe.ReplaceAllStringFunc(f.Template, func(mk string) string {
			return strings.TrimRight(fragments[slotOf(mk)], "\n")
		})
		out = append(out, Output{Path: f.Path, Content: []byte(text)})
	}
	return out, nil
}

// Fill assembles a single template.
func Fill(kind backend.Kind, name, template string, fragments map[backend.Slot]string, repeatable ...backend.Slot) (string, error) {
	out, err := Assemble(Bundle{
		Backend:    kind,
		Files:      []File{{Path: name, Template: template}},
		Repeatable: repeatable,
	}, fragments)
	if err != nil {
		return "", err
	}
	return string(out[0].Content), nil
}

// Merge combines fragment maps; a slot present in more than one is an error.
func Merge(kind backend.Kind, sets ...map[backend.Slot]string) (map[backend.Slot]string, error) {
	out := make(map[backend.Slot]string)
	for _, set := range sets {
		for s, text := range set {
			if _, dup := out[s]; dup {
				return nil, backend.Preconditionf(kind, diag.GenSlotDuplicate, "slot %s produced twice", s)
			}
			out[s] = text
		}
	}
	return out, nil
}

func (o Output) String() string {
	return fmt.Sprintf("%s (%d bytes)", o.Path, len(o.Content))
}
