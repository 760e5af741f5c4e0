package chord_test

import (
	"testing"

	"github.com/okian/chordscan/internal/domain/chord"
	"github.com/okian/chordscan/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func pcs(names ...string) []model.PitchClass {
	out := make([]model.PitchClass, len(names))
	for i, n := range names {
		out[i] = model.PitchClass(n)
	}
	return out
}

func TestDetect(t *testing.T) {
	Convey("Given the default chord engine", t, func() {
		Convey("When detecting C E G", func() {
			labels := chord.Detect(pcs("C", "E", "G"))

			Convey("Then the best label is C", func() {
				So(labels, ShouldNotBeEmpty)
				So(labels[0], ShouldEqual, "C")
			})
		})

		Convey("When detecting A C E", func() {
			labels := chord.Detect(pcs("A", "C", "E"))
			So(labels, ShouldNotBeEmpty)
			So(labels[0], ShouldEqual, "Am")
		})

		Convey("When detecting G B D", func() {
			labels := chord.Detect(pcs("G", "B", "D"))
			So(labels, ShouldNotBeEmpty)
			So(labels[0], ShouldEqual, "G")
		})

		Convey("When detecting a diminished seventh spelling", func() {
			labels := chord.Detect(pcs("C", "Eb", "Gb", "A"))

			Convey("Then the best label is a diminished seventh", func() {
				So(labels, ShouldNotBeEmpty)
				So(labels[0], ShouldEqual, "Co7")
				So(chord.Kind(labels[0]), ShouldEqual, model.KindDiminishedSeventh)
			})
		})

		Convey("When the bass note is not the root", func() {
			labels := chord.Detect(pcs("E", "G", "C"))

			Convey("Then the inversion still resolves to its root", func() {
				So(labels, ShouldResemble, []string{"C"})
			})
		})

		Convey("When a seventh chord omits its fifth", func() {
			labels := chord.Detect(pcs("G", "B", "F"))
			So(labels, ShouldNotBeEmpty)
			So(labels[0], ShouldEqual, "G7")
		})

		Convey("When omitted fifths are disabled", func() {
			e := chord.New(chord.WithOmittedFifth(false))
			So(e.Detect(pcs("G", "B", "F")), ShouldBeEmpty)
		})

		Convey("When the set is empty, a single note or an interval", func() {
			So(chord.Detect(nil), ShouldBeEmpty)
			So(chord.Detect(pcs("C")), ShouldBeEmpty)
			So(chord.Detect(pcs("C", "G")), ShouldBeEmpty)
		})

		Convey("When the set is an unrecognized cluster", func() {
			So(chord.Detect(pcs("C", "C#", "D")), ShouldBeEmpty)
		})

		Convey("When enharmonic spellings repeat a note", func() {
			labels := chord.Detect(pcs("C", "E", "Fb", "G", "B#"))
			So(labels, ShouldNotBeEmpty)
			So(labels[0], ShouldEqual, "C")
		})
	})
}

func TestBest(t *testing.T) {
	Convey("Given an engine", t, func() {
		e := chord.New()

		label, ok := e.Best(pcs("D", "F#", "A", "C"))
		So(ok, ShouldBeTrue)
		So(label, ShouldEqual, "D7")

		_, ok = e.Best(pcs("D"))
		So(ok, ShouldBeFalse)
	})
}

func TestSemitone(t *testing.T) {
	cases := map[string]int{"C": 0, "C#": 1, "Db": 1, "B#": 0, "Cb": 11, "F##": 7, "Ebb": 2, "a": 9}
	for in, want := range cases {
		got, ok := chord.Semitone(model.PitchClass(in))
		if !ok || got != want {
			t.Errorf("Semitone(%q) = %d, %v; want %d", in, got, ok, want)
		}
	}
	for _, bad := range []string{"", "H", "C?"} {
		if _, ok := chord.Semitone(model.PitchClass(bad)); ok {
			t.Errorf("Semitone(%q) should fail", bad)
		}
	}
}

func TestParseLabel(t *testing.T) {
	Convey("Given chord labels", t, func() {
		Convey("When parsing roots and accidentals", func() {
			So(chord.ParseLabel("F#m7"), ShouldResemble, model.ChordSymbol{Root: "F", Alter: 1, Kind: model.KindMinorSeventh})
			So(chord.ParseLabel("bb"), ShouldResemble, model.ChordSymbol{Root: "B", Alter: -1, Kind: model.KindMajor})
			So(chord.ParseLabel("Ebbmaj7"), ShouldResemble, model.ChordSymbol{Root: "E", Alter: -2, Kind: model.KindMajorSeventh})
			So(chord.ParseLabel("C##"), ShouldResemble, model.ChordSymbol{Root: "C", Alter: 2, Kind: model.KindMajor})
		})

		Convey("When the root is missing", func() {
			sym := chord.ParseLabel("m7")
			So(sym.Root, ShouldEqual, "C")
			So(sym.Kind, ShouldEqual, model.KindMinorSeventh)
		})

		Convey("When classifying kinds in rule order", func() {
			cases := map[string]model.ChordKind{
				"C":      model.KindMajor,
				"Cmaj7":  model.KindMajorSeventh,
				"CΔ7":    model.KindMajorSeventh,
				"Cmaj":   model.KindMajor,
				"Cm7":    model.KindMinorSeventh,
				"Am":     model.KindMinor,
				"Amin":   model.KindMinor,
				"Cdim7":  model.KindMinorSeventh,
				"Cdim":   model.KindMinor,
				"Co7":    model.KindDiminishedSeventh,
				"Co":     model.KindDiminished,
				"Caug":   model.KindAugmented,
				"C+":     model.KindAugmented,
				"Csus2":  model.KindSuspendedSecond,
				"Csus4":  model.KindSuspendedFourth,
				"Csus":   model.KindSuspendedFourth,
				"G7":     model.KindDominantSeventh,
				"CM7":    model.KindMinorSeventh,
				"C7sus4": model.KindSuspendedFourth,
			}
			for label, want := range cases {
				So(chord.Kind(label), ShouldEqual, want)
			}
		})

		Convey("When every template label is parsed", func() {
			Convey("Then it classifies as the template's kind", func() {
				for _, tpl := range chord.Templates() {
					So(chord.Kind("D"+tpl.Suffix), ShouldEqual, tpl.Kind)
				}
			})
		})
	})
}
