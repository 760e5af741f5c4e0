package model

import "strings"

// PitchClass is a note spelling without octave, e.g. "C#" or "Eb".
type PitchClass string

// NoteEvent is one note or rest read from a measure.
type NoteEvent struct {
	IsRest    bool
	Step      string // A-G, empty when absent
	Alter     int
	HasOctave bool
	Octave    int
}

// PitchClass returns the spelling for the event. It reports false for rests
// and for events missing a step or an octave.
func (n NoteEvent) PitchClass() (PitchClass, bool) {
	if n.IsRest || n.Step == "" || !n.HasOctave {
		return "", false
	}
	return PitchClass(strings.ToUpper(n.Step) + Accidental(n.Alter)), true
}

// Accidental maps a semitone alteration onto its spelling. Values beyond
// two semitones clamp to the double accidental of the same sign.
func Accidental(alter int) string {
	switch {
	case alter >= 2:
		return "##"
	case alter == 1:
		return "#"
	case alter == -1:
		return "b"
	case alter <= -2:
		return "bb"
	default:
		return ""
	}
}

// MeasureChordResult is the chord found for one measure.
type MeasureChordResult struct {
	Measure int          `json:"measure"`
	Chord   string       `json:"chord,omitempty"`
	Notes   []PitchClass `json:"notes"`
}

// HasChord reports whether a label was recognized for the measure.
func (r MeasureChordResult) HasChord() bool { return r.Chord != "" }

// AnyChord reports whether at least one measure carries a label.
func AnyChord(results []MeasureChordResult) bool {
	for _, r := range results {
		if r.HasChord() {
			return true
		}
	}
	return false
}

// ChordKind is the quality of a chord symbol.
type ChordKind int

// Chord kinds. String returns the MusicXML <kind> value.
const (
	KindMajor ChordKind = iota
	KindMinor
	KindMajorSeventh
	KindMinorSeventh
	KindDominantSeventh
	KindDiminished
	KindDiminishedSeventh
	KindAugmented
	KindSuspendedSecond
	KindSuspendedFourth
)

var chordKindNames = [...]string{
	KindMajor:             "major",
	KindMinor:             "minor",
	KindMajorSeventh:      "major-seventh",
	KindMinorSeventh:      "minor-seventh",
	KindDominantSeventh:   "dominant",
	KindDiminished:        "diminished",
	KindDiminishedSeventh: "diminished-seventh",
	KindAugmented:         "augmented",
	KindSuspendedSecond:   "suspended-second",
	KindSuspendedFourth:   "suspended-fourth",
}

func (k ChordKind) String() string {
	if k < 0 || int(k) >= len(chordKindNames) {
		return "none"
	}
	return chordKindNames[k]
}

// ParseChordKind maps a MusicXML <kind> value back to a ChordKind.
func ParseChordKind(s string) (ChordKind, bool) {
	s = strings.TrimSpace(s)
	for i, name := range chordKindNames {
		if name == s {
			return ChordKind(i), true
		}
	}
	return 0, false
}

// ChordSymbol is a root with accidental and quality.
type ChordSymbol struct {
	Root  string // upper case A-G
	Alter int    // -2..2
	Kind  ChordKind
}

// RootName returns the root spelled with its accidental.
func (c ChordSymbol) RootName() string {
	return c.Root + Accidental(c.Alter)
}
