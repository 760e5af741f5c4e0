package langid_test

import (
	"testing"

	"github.com/okian/chordscan/internal/adapters/langid"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	tagalog = "Ang lahat ng tao ay isinilang na malaya at pantay-pantay sa karangalan at mga karapatan. " +
		"Sila ay pinagkalooban ng katwiran at budhi at dapat magpalagayan ang isa't isa sa diwa ng pagkakapatiran."
	english = "All human beings are born free and equal in dignity and rights. " +
		"They are endowed with reason and conscience and should act towards one another in a spirit of brotherhood."
)

func TestDetect(t *testing.T) {
	Convey("Given a detector with the default minimum length", t, func() {
		d := langid.New()

		Convey("When the text is shorter than ten characters", func() {
			So(d.Detect("hello"), ShouldEqual, "und")
			So(d.Detect("   ab cd   "), ShouldEqual, "und")
			So(d.Detect(""), ShouldEqual, "und")
		})

		Convey("When the text is a long English passage", func() {
			So(d.Detect(english), ShouldEqual, "eng")
		})

		Convey("When the text is a long Tagalog passage", func() {
			So(d.Detect(tagalog), ShouldEqual, "tgl")
		})
	})

	Convey("Given a larger minimum length", t, func() {
		d := langid.New(langid.WithMinLength(1000))
		So(d.Detect(english), ShouldEqual, "und")
	})

	Convey("Given a candidate list", t, func() {
		d := langid.New(langid.WithCandidates("eng", "tgl", "zzz"))
		So(d.Detect(tagalog), ShouldEqual, "tgl")
	})
}
