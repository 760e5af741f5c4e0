package types_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/chordscan/internal/domain/model"
	types "github.com/okian/chordscan/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewScanResponse(t *testing.T) {
	Convey("Given a finished scan", t, func() {
		res := model.ScanResult{
			Job: model.Job{Input: model.Input{OriginalName: "page.png", Size: 2048}},
			Chords: []model.MeasureChordResult{
				{Measure: 1, Chord: "C", Notes: []model.PitchClass{"C", "E", "G"}},
				{Measure: 2, Notes: []model.PitchClass{}},
			},
		}

		Convey("When building the response", func() {
			body, err := json.Marshal(types.NewScanResponse(res, "/omr-out/1700000000000/page.mxl"))
			So(err, ShouldBeNil)

			Convey("Then measures without a chord omit the label", func() {
				So(string(body), ShouldEqual, `{"ok":true,"summary":{"filename":"page.png","bytes":2048},`+
					`"musicxmlUrl":"/omr-out/1700000000000/page.mxl",`+
					`"chords":[{"measure":1,"chord":"C","notes":["C","E","G"]},{"measure":2,"notes":[]}]}`)
			})
		})

		Convey("When there are no chords at all", func() {
			resp := types.NewScanResponse(model.ScanResult{}, "/omr-out/x.xml")
			So(resp.Chords, ShouldNotBeNil)
		})
	})
}

func TestNewAudioResponse(t *testing.T) {
	Convey("Given an accepted audio upload", t, func() {
		res := model.AudioResult{
			Job:             model.Job{Input: model.Input{OriginalName: "awit.mp3", Size: 10}},
			Gate:            model.LanguageGateResult{DetectedLanguage: "tgl", Accepted: true},
			EstimatedChords: []string{"C", "G"},
		}
		resp := types.NewAudioResponse(res, "/audio-out/1_awit.musicxml")

		So(resp.OK, ShouldBeTrue)
		So(resp.IsTargetLanguage, ShouldBeTrue)
		So(resp.DetectedLang, ShouldEqual, "tgl")
		So(resp.Summary.Filename, ShouldEqual, "awit.mp3")
		So(resp.MusicXMLURL, ShouldEqual, "/audio-out/1_awit.musicxml")
	})
}

func TestNewErrorResponse(t *testing.T) {
	Convey("Given failures of different kinds", t, func() {
		Convey("When the language gate rejected the upload", func() {
			e := model.NewKind(model.KindLanguageRejected, "not the target language")
			e.DetectedLanguage = "eng"
			body, err := json.Marshal(types.NewErrorResponse(e))
			So(err, ShouldBeNil)

			Convey("Then the flag and detected code are present and no URL is", func() {
				So(string(body), ShouldEqual,
					`{"ok":false,"code":"language_rejected","error":"not the target language","isTargetLanguage":false,"detectedLang":"eng"}`)
			})
		})

		Convey("When the engine failed", func() {
			e := model.WrapKind(model.KindEngineFailed, "recognition engine failed (exit 1)", errors.New("exit status 1"))
			e.Diagnostics = "Exception in thread main"
			resp := types.NewErrorResponse(e)

			So(resp.Code, ShouldEqual, "engine_failed")
			So(resp.Error, ShouldEqual, "recognition engine failed (exit 1)")
			So(resp.Diagnostics, ShouldEqual, "Exception in thread main")
			So(resp.IsTargetLanguage, ShouldBeNil)
		})

		Convey("When no chord was recognized", func() {
			e := model.NewKind(model.KindNoChordRecognized, "no chords")
			e.Chords = []model.MeasureChordResult{{Measure: 1, Notes: []model.PitchClass{"C"}}}
			resp := types.NewErrorResponse(e)

			So(resp.Chords, ShouldResemble, e.Chords)
		})

		Convey("When the error is unclassified", func() {
			resp := types.NewErrorResponse(errors.New("disk on fire"))

			So(resp.Code, ShouldEqual, "unknown")
			So(resp.Error, ShouldEqual, "disk on fire")
			So(types.NewErrorResponse(nil).Error, ShouldEqual, "internal error")
		})
	})
}
