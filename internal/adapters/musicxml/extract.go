package musicxml

import "github.com/okian/chordscan/internal/domain/model"

// MeasurePitches is the deduplicated pitch-class set of one measure, in
// order of first occurrence.
type MeasurePitches struct {
	Number       int
	PitchClasses []model.PitchClass
}

// Extraction is the per-measure pitch content of a score.
type Extraction struct {
	Measures []MeasurePitches
}

// Empty reports a score with no measures.
func (e Extraction) Empty() bool { return len(e.Measures) == 0 }

// ExtractMeasures reads the first part only; other parts are not merged.
// Rests and notes lacking a step or octave contribute nothing.
func ExtractMeasures(doc *Document) Extraction {
	if doc == nil || len(doc.Parts) == 0 {
		return Extraction{}
	}
	measures := doc.Parts[0].Measures
	out := Extraction{Measures: make([]MeasurePitches, 0, len(measures))}
	for _, m := range measures {
		seen := make(map[model.PitchClass]bool, len(m.Notes))
		pcs := make([]model.PitchClass, 0, len(m.Notes))
		for _, n := range m.Notes {
			pc, ok := n.PitchClass()
			if !ok || seen[pc] {
				continue
			}
			seen[pc] = true
			pcs = append(pcs, pc)
		}
		out.Measures = append(out.Measures, MeasurePitches{Number: m.Number, PitchClasses: pcs})
	}
	return out
}
