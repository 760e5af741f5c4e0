// Package musicxml reads and writes MusicXML scores. Loaded documents are
// normalised so that part-wise and time-wise files expose the same
// parts/measures shape and repeated elements are always slices.
package musicxml

import (
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/okian/chordscan/internal/domain/model"
)

// Root element names.
const (
	RootPartwise = "score-partwise"
	RootTimewise = "score-timewise"
)

// Document is a parsed score.
type Document struct {
	Root  string
	Title string
	Parts []Part
}

// Part is one instrument line, measures in document order.
type Part struct {
	ID       string
	Measures []Measure
}

// Measure holds the note events and chord symbols of one measure. Number
// is 0 when the number attribute is missing or not an integer.
type Measure struct {
	Number    int
	Notes     []model.NoteEvent
	Harmonies []model.ChordSymbol
}

func fromTree(doc *etree.Document) (*Document, error) {
	root := doc.Root()
	if root == nil {
		return nil, ErrEmptyDocument
	}
	out := &Document{Root: root.Tag, Title: title(root)}

	switch root.Tag {
	case RootPartwise:
		for _, p := range root.SelectElements("part") {
			part := Part{ID: p.SelectAttrValue("id", "")}
			for _, m := range p.SelectElements("measure") {
				part.Measures = append(part.Measures, readMeasure(m, m.SelectAttrValue("number", "")))
			}
			out.Parts = append(out.Parts, part)
		}
	case RootTimewise:
		index := make(map[string]int)
		for _, m := range root.SelectElements("measure") {
			number := m.SelectAttrValue("number", "")
			for _, p := range m.SelectElements("part") {
				id := p.SelectAttrValue("id", "")
				i, ok := index[id]
				if !ok {
					i = len(out.Parts)
					index[id] = i
					out.Parts = append(out.Parts, Part{ID: id})
				}
				out.Parts[i].Measures = append(out.Parts[i].Measures, readMeasure(p, number))
			}
		}
	default:
		return nil, ErrUnsupportedRoot
	}
	return out, nil
}

func title(root *etree.Element) string {
	if t := root.FindElement("work/work-title"); t != nil {
		return strings.TrimSpace(t.Text())
	}
	if t := root.SelectElement("movement-title"); t != nil {
		return strings.TrimSpace(t.Text())
	}
	return ""
}

func readMeasure(el *etree.Element, number string) Measure {
	m := Measure{Number: atoi(number)}
	for _, n := range el.SelectElements("note") {
		m.Notes = append(m.Notes, readNote(n))
	}
	for _, h := range el.SelectElements("harmony") {
		if sym, ok := readHarmony(h); ok {
			m.Harmonies = append(m.Harmonies, sym)
		}
	}
	return m
}

func readNote(n *etree.Element) model.NoteEvent {
	ev := model.NoteEvent{IsRest: n.SelectElement("rest") != nil}
	pitch := n.SelectElement("pitch")
	if pitch == nil {
		return ev
	}
	if s := pitch.SelectElement("step"); s != nil {
		ev.Step = strings.ToUpper(strings.TrimSpace(s.Text()))
	}
	if a := pitch.SelectElement("alter"); a != nil {
		ev.Alter = roundAlter(a.Text())
	}
	if o := pitch.SelectElement("octave"); o != nil {
		if v, err := strconv.Atoi(strings.TrimSpace(o.Text())); err == nil {
			ev.Octave, ev.HasOctave = v, true
		}
	}
	return ev
}

func readHarmony(h *etree.Element) (model.ChordSymbol, bool) {
	step := h.FindElement("root/root-step")
	if step == nil {
		return model.ChordSymbol{}, false
	}
	sym := model.ChordSymbol{Root: strings.ToUpper(strings.TrimSpace(step.Text()))}
	if a := h.FindElement("root/root-alter"); a != nil {
		sym.Alter = roundAlter(a.Text())
	}
	if k := h.SelectElement("kind"); k != nil {
		if kind, ok := model.ParseChordKind(k.Text()); ok {
			sym.Kind = kind
		}
	}
	return sym, true
}

// roundAlter reads a possibly fractional alteration, rounding microtones to
// the nearest semitone and clamping to two.
func roundAlter(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return int(math.Max(-2, math.Min(2, math.Round(f))))
}

func atoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
