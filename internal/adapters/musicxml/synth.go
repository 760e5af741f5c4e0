package musicxml

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/okian/chordscan/internal/domain/chord"
)

const (
	leadPartID   = "P1"
	leadPartName = "Lead"
	software     = "chordscan"
	doctype      = `DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 4.0 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd"`
)

// Options shape a synthesized lead sheet.
type Options struct {
	BeatsPerBar int
	Divisions   int // per quarter note
	Tempo       int // quarter notes per minute
	KeyFifths   int
}

// DefaultOptions returns 4/4 at 100 bpm in C with one division per beat.
func DefaultOptions() Options {
	return Options{BeatsPerBar: 4, Divisions: 1, Tempo: 100, KeyFifths: 0}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BeatsPerBar <= 0 {
		o.BeatsPerBar = d.BeatsPerBar
	}
	if o.Divisions <= 0 {
		o.Divisions = d.Divisions
	}
	if o.Tempo <= 0 {
		o.Tempo = d.Tempo
	}
	return o
}

// Synthesize writes a single-part lead sheet with one measure per chord.
// Each measure carries a harmony for its chord over a bar of quarter rests;
// the first measure also carries key, time, clef and tempo.
func Synthesize(title string, chords []string, opts Options) ([]byte, error) {
	if len(chords) == 0 {
		return nil, ErrNoChords
	}
	opts = opts.withDefaults()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="no"`)
	doc.CreateDirective(doctype)

	score := doc.CreateElement(RootPartwise)
	score.CreateAttr("version", "4.0")
	score.CreateElement("work").CreateElement("work-title").SetText(title)
	score.CreateElement("identification").CreateElement("encoding").CreateElement("software").SetText(software)

	sp := score.CreateElement("part-list").CreateElement("score-part")
	sp.CreateAttr("id", leadPartID)
	sp.CreateElement("part-name").SetText(leadPartName)

	part := score.CreateElement("part")
	part.CreateAttr("id", leadPartID)
	for i, label := range chords {
		m := part.CreateElement("measure")
		m.CreateAttr("number", strconv.Itoa(i+1))
		if i == 0 {
			writeAttributes(m, opts)
			writeTempo(m, opts.Tempo)
		}
		writeHarmony(m, label)
		for b := 0; b < opts.BeatsPerBar; b++ {
			note := m.CreateElement("note")
			note.CreateElement("rest")
			note.CreateElement("duration").SetText(strconv.Itoa(opts.Divisions))
			note.CreateElement("voice").SetText("1")
			note.CreateElement("type").SetText("quarter")
		}
		bar := m.CreateElement("barline")
		bar.CreateAttr("location", "right")
		bar.CreateElement("bar-style").SetText("regular")
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func writeAttributes(m *etree.Element, o Options) {
	attrs := m.CreateElement("attributes")
	attrs.CreateElement("divisions").SetText(strconv.Itoa(o.Divisions))
	attrs.CreateElement("key").CreateElement("fifths").SetText(strconv.Itoa(o.KeyFifths))
	t := attrs.CreateElement("time")
	t.CreateElement("beats").SetText(strconv.Itoa(o.BeatsPerBar))
	t.CreateElement("beat-type").SetText("4")
	clef := attrs.CreateElement("clef")
	clef.CreateElement("sign").SetText("G")
	clef.CreateElement("line").SetText("2")
}

func writeTempo(m *etree.Element, tempo int) {
	dir := m.CreateElement("direction")
	dir.CreateAttr("placement", "above")
	metro := dir.CreateElement("direction-type").CreateElement("metronome")
	metro.CreateElement("beat-unit").SetText("quarter")
	metro.CreateElement("per-minute").SetText(strconv.Itoa(tempo))
	dir.CreateElement("sound").CreateAttr("tempo", strconv.Itoa(tempo))
}

func writeHarmony(m *etree.Element, label string) {
	sym := chord.ParseLabel(label)
	h := m.CreateElement("harmony")
	root := h.CreateElement("root")
	root.CreateElement("root-step").SetText(sym.Root)
	if sym.Alter != 0 {
		root.CreateElement("root-alter").SetText(strconv.Itoa(sym.Alter))
	}
	kind := h.CreateElement("kind")
	if text := chord.Suffix(label); text != "" {
		kind.CreateAttr("text", text)
	}
	kind.SetText(sym.Kind.String())
}

