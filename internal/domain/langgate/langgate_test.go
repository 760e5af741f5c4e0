package langgate_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/chordscan/internal/adapters/audiotags"
	"github.com/okian/chordscan/internal/adapters/langid"
	"github.com/okian/chordscan/internal/domain/langgate"
	"github.com/okian/chordscan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type stubTags struct {
	tags audiotags.Tags
	err  error
}

func (s stubTags) Read(context.Context, string) (audiotags.Tags, error) { return s.tags, s.err }

type recordingDetector struct {
	code string
	seen []string
}

func (r *recordingDetector) Detect(text string) string {
	r.seen = append(r.seen, text)
	return r.code
}

func TestGate(t *testing.T) {
	ctx := context.Background()

	Convey("Given audio without readable metadata", t, func() {
		tags := stubTags{err: errors.New("no tags")}

		Convey("When the file name is short", func() {
			g := langgate.New(tags, langid.New())
			res := g.Check(ctx, "/tmp/x", "ab.mp3")

			Convey("Then it is rejected as undetermined", func() {
				So(res.Accepted, ShouldBeFalse)
				So(res.DetectedLanguage, ShouldEqual, "und")
				So(res.Source, ShouldEqual, langgate.SourceFilename)
				So(res.Text, ShouldEqual, "ab mp3")
			})
		})

		Convey("When the file name is in the target language", func() {
			det := &recordingDetector{code: "tgl"}
			g := langgate.New(tags, det, langgate.WithTarget("TGL"))
			res := g.Check(ctx, "/tmp/x", "ing_bie-ning.mp3")

			Convey("Then the words of the name are detected and accepted", func() {
				So(det.seen, ShouldResemble, []string{"ing bie ning mp3"})
				So(res.Accepted, ShouldBeTrue)
				So(res.DetectedLanguage, ShouldEqual, "tgl")
			})
		})
	})

	Convey("Given audio with metadata", t, func() {
		tags := stubTags{tags: audiotags.Tags{Title: "Atin Cu Pung Singsing", Artist: "Traditional"}}

		Convey("When the detector reports another language", func() {
			det := &recordingDetector{code: "eng"}
			res := langgate.New(tags, det).Check(ctx, "/tmp/x", "ignored.mp3")

			Convey("Then the metadata text is used and the audio is rejected", func() {
				So(det.seen, ShouldResemble, []string{"Atin Cu Pung Singsing Traditional"})
				So(res.Source, ShouldEqual, langgate.SourceMetadata)
				So(res.Accepted, ShouldBeFalse)
				So(res.DetectedLanguage, ShouldEqual, "eng")
			})
		})

		Convey("When the metadata is long", func() {
			long := stubTags{tags: audiotags.Tags{Lyrics: strings.Repeat("a", 100)}}
			det := &recordingDetector{code: "tgl"}
			langgate.New(long, det, langgate.WithTextLimit(12)).Check(ctx, "/tmp/x", "a.mp3")
			So(det.seen[0], ShouldHaveLength, 12)
		})
	})

	Convey("Given a name whose separators are doubled", t, func() {
		det := &recordingDetector{code: "tgl"}
		langgate.New(nil, det).Check(ctx, "/tmp/x", "a__b__c.mp3")

		Convey("Then every separator counts toward the text length", func() {
			So(det.seen, ShouldResemble, []string{"a  b  c mp3"})
			So(det.seen[0], ShouldHaveLength, 11)
		})
	})

	Convey("Given a detector that returns nothing", t, func() {
		det := &recordingDetector{code: ""}
		res := langgate.New(nil, det, langgate.WithTarget("")).Check(ctx, "/tmp/x", "song.mp3")
		So(res.DetectedLanguage, ShouldEqual, "und")
		So(res.Accepted, ShouldBeFalse)
	})

	Convey("Given a gate that targets undetermined text", t, func() {
		det := &recordingDetector{code: "und"}
		res := langgate.New(nil, det, langgate.WithTarget("und")).Check(ctx, "/tmp/x", "x")
		So(res.Accepted, ShouldBeFalse)
	})
}

func TestFilenameText(t *testing.T) {
	cases := map[string]string{
		"my_song-final.v2.mp3": "my song final v2 mp3",
		"plain":                "plain",
		"__x__":                "x",
		"a__b__c.mp3":          "a  b  c mp3",
		"my--song":             "my  song",
	}
	for in, want := range cases {
		if got := langgate.FilenameText(in); got != want {
			t.Errorf("FilenameText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGateLogFields(t *testing.T) {
	Convey("Given a gate logging as JSON", t, func() {
		var buf bytes.Buffer
		So(logger.InitTo(&buf, "json"), ShouldBeNil)
		defer func() { _ = logger.Init() }()

		langgate.New(nil, &recordingDetector{code: "eng"}).Check(context.Background(), "/tmp/x", "song.mp3")

		Convey("Then the text origin does not collide with the caller source", func() {
			line := buf.String()
			So(line, ShouldContainSubstring, `"text_source":"filename"`)
			So(strings.Count(line, `"source":`), ShouldEqual, 1)
		})
	})
}
