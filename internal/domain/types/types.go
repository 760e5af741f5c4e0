// Package types contains the JSON shapes returned by the HTTP API.
package types

import "github.com/okian/chordscan/internal/domain/model"

// Summary describes the uploaded file.
type Summary struct {
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

// ScanResponse is returned for a successful score scan.
type ScanResponse struct {
	OK          bool                       `json:"ok"`
	Summary     Summary                    `json:"summary"`
	MusicXMLURL string                     `json:"musicxmlUrl"`
	Chords      []model.MeasureChordResult `json:"chords"`
}

// AudioResponse is returned for an accepted audio upload.
type AudioResponse struct {
	OK               bool     `json:"ok"`
	Summary          Summary  `json:"summary"`
	IsTargetLanguage bool     `json:"isTargetLanguage"`
	DetectedLang     string   `json:"detectedLang"`
	EstimatedChords  []string `json:"estimatedChords"`
	MusicXMLURL      string   `json:"musicxmlUrl"`
}

// ErrorResponse is returned for every failure. It never carries a document URL.
type ErrorResponse struct {
	OK               bool                       `json:"ok"`
	Code             string                     `json:"code"`
	Error            string                     `json:"error"`
	Diagnostics      string                     `json:"diagnostics,omitempty"`
	IsTargetLanguage *bool                      `json:"isTargetLanguage,omitempty"`
	DetectedLang     string                     `json:"detectedLang,omitempty"`
	Chords           []model.MeasureChordResult `json:"chords,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	TS      int64  `json:"ts"`
}

// SummaryOf builds a Summary from an upload.
func SummaryOf(in model.Input) Summary {
	return Summary{Filename: in.OriginalName, Bytes: in.Size}
}

// NewScanResponse builds the success body for a scan.
func NewScanResponse(res model.ScanResult, url string) ScanResponse {
	chords := res.Chords
	if chords == nil {
		chords = []model.MeasureChordResult{}
	}
	return ScanResponse{OK: true, Summary: SummaryOf(res.Job.Input), MusicXMLURL: url, Chords: chords}
}

// NewAudioResponse builds the success body for an accepted audio upload.
func NewAudioResponse(res model.AudioResult, url string) AudioResponse {
	return AudioResponse{
		OK:               true,
		Summary:          SummaryOf(res.Job.Input),
		IsTargetLanguage: true,
		DetectedLang:     res.Gate.DetectedLanguage,
		EstimatedChords:  res.EstimatedChords,
		MusicXMLURL:      url,
	}
}

// NewErrorResponse builds a failure body from err. Classified errors
// contribute their kind, diagnostics, detected language and chords.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Code: model.KindUnknown.String(), Error: "internal error"}
	if err == nil {
		return resp
	}
	resp.Error = err.Error()
	e, ok := model.AsError(err)
	if !ok {
		return resp
	}
	resp.Code = e.Kind.String()
	if e.Message != "" {
		resp.Error = e.Message
	}
	resp.Diagnostics = e.Diagnostics
	resp.Chords = e.Chords
	if e.Kind == model.KindLanguageRejected {
		accepted := false
		resp.IsTargetLanguage = &accepted
		resp.DetectedLang = e.DetectedLanguage
	}
	return resp
}
