// Package chord infers chord labels from pitch-class sets and parses labels
// back into chord symbols.
package chord

import (
	"sort"
	"strings"

	"github.com/okian/chordscan/internal/domain/model"
)

const (
	semitonesPerOctave = 12
	bassBonus          = 1.0
	omittedFifthCost   = 0.5
	perfectFifth       = 7
	minOmittedFifthLen = 3
)

// Template is a chord shape expressed as intervals above the root.
// Suffix is appended to the root spelling to form the label.
type Template struct {
	Suffix    string
	Kind      model.ChordKind
	Intervals []int
	Weight    float64
}

// defaultTemplates lists the known chord shapes, most common first. Suffixes
// are chosen so that ParseLabel classifies each label as Kind.
var defaultTemplates = []Template{
	{Suffix: "", Kind: model.KindMajor, Intervals: []int{0, 4, 7}, Weight: 1.0},
	{Suffix: "m", Kind: model.KindMinor, Intervals: []int{0, 3, 7}, Weight: 1.0},
	{Suffix: "7", Kind: model.KindDominantSeventh, Intervals: []int{0, 4, 7, 10}, Weight: 0.9},
	{Suffix: "m7", Kind: model.KindMinorSeventh, Intervals: []int{0, 3, 7, 10}, Weight: 0.9},
	{Suffix: "maj7", Kind: model.KindMajorSeventh, Intervals: []int{0, 4, 7, 11}, Weight: 0.85},
	{Suffix: "o7", Kind: model.KindDiminishedSeventh, Intervals: []int{0, 3, 6, 9}, Weight: 0.8},
	{Suffix: "o", Kind: model.KindDiminished, Intervals: []int{0, 3, 6}, Weight: 0.8},
	{Suffix: "+", Kind: model.KindAugmented, Intervals: []int{0, 4, 8}, Weight: 0.7},
	{Suffix: "sus4", Kind: model.KindSuspendedFourth, Intervals: []int{0, 5, 7}, Weight: 0.65},
	{Suffix: "sus2", Kind: model.KindSuspendedSecond, Intervals: []int{0, 2, 7}, Weight: 0.6},
}

// Templates returns a copy of the built-in chord shapes.
func Templates() []Template {
	out := make([]Template, len(defaultTemplates))
	copy(out, defaultTemplates)
	return out
}

// Engine matches pitch-class sets against chord templates.
type Engine struct {
	templates    []Template
	omittedFifth bool
}

// New creates an Engine with the built-in templates.
func New(opts ...Option) *Engine {
	e := &Engine{
		templates:    defaultTemplates,
		omittedFifth: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Detect runs the default engine.
func Detect(pcs []model.PitchClass) []string { return defaultEngine.Detect(pcs) }

type candidate struct {
	label string
	score float64
	order int
}

// Detect returns candidate labels for pcs, best first. Every note is tried
// as a root. A candidate matches when the set equals a template's tones, or,
// for four-note templates, when only the perfect fifth is missing. Candidates
// rooted on the first pitch class rank ahead of inversions. Unknown spellings
// are ignored; an empty or unmatched set yields no candidates.
func (e *Engine) Detect(pcs []model.PitchClass) []string {
	type note struct {
		name     string
		semitone int
	}
	var notes []note
	seen := make(map[int]bool, len(pcs))
	for _, pc := range pcs {
		s, ok := Semitone(pc)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		notes = append(notes, note{name: string(pc), semitone: s})
	}
	if len(notes) == 0 {
		return nil
	}

	var found []candidate
	for ri, root := range notes {
		intervals := make(map[int]bool, len(notes))
		for _, n := range notes {
			intervals[mod12(n.semitone-root.semitone)] = true
		}
		for _, t := range e.templates {
			score, ok := e.match(intervals, t)
			if !ok {
				continue
			}
			if ri == 0 {
				score += bassBonus
			}
			found = append(found, candidate{label: root.name + t.Suffix, score: score, order: len(found)})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].score != found[j].score {
			return found[i].score > found[j].score
		}
		return found[i].order < found[j].order
	})

	labels := make([]string, 0, len(found))
	dup := make(map[string]bool, len(found))
	for _, c := range found {
		if dup[c.label] {
			continue
		}
		dup[c.label] = true
		labels = append(labels, c.label)
	}
	return labels
}

// Best returns the top candidate for pcs.
func (e *Engine) Best(pcs []model.PitchClass) (string, bool) {
	labels := e.Detect(pcs)
	if len(labels) == 0 {
		return "", false
	}
	return labels[0], true
}

func (e *Engine) match(intervals map[int]bool, t Template) (float64, bool) {
	if len(intervals) == len(t.Intervals) && containsAll(intervals, t.Intervals) {
		return t.Weight, true
	}
	// Voicings frequently drop the fifth of a seventh chord.
	if !e.omittedFifth || len(t.Intervals) <= minOmittedFifthLen || len(intervals) != len(t.Intervals)-1 {
		return 0, false
	}
	if intervals[perfectFifth] || !hasInterval(t.Intervals, perfectFifth) {
		return 0, false
	}
	for i := range intervals {
		if !hasInterval(t.Intervals, i) {
			return 0, false
		}
	}
	return t.Weight - omittedFifthCost, true
}

func containsAll(set map[int]bool, want []int) bool {
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

func hasInterval(intervals []int, i int) bool {
	for _, v := range intervals {
		if v == i {
			return true
		}
	}
	return false
}

func mod12(v int) int {
	v %= semitonesPerOctave
	if v < 0 {
		v += semitonesPerOctave
	}
	return v
}

var letterSemitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Semitone returns the pitch class number (C=0) for a spelling like "F#" or "Bbb".
func Semitone(pc model.PitchClass) (int, bool) {
	s := strings.TrimSpace(string(pc))
	if s == "" {
		return 0, false
	}
	base, ok := letterSemitones[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, false
	}
	for _, r := range s[1:] {
		switch r {
		case '#':
			base++
		case 'b':
			base--
		default:
			return 0, false
		}
	}
	return mod12(base), true
}
