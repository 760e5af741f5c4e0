// Package model contains domain models passed between layers.
package model

import "time"

// JobStatus tracks a job through the pipeline.
type JobStatus string

// Job statuses.
const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Input describes the uploaded file a job works on.
type Input struct {
	Path         string // location on disk
	OriginalName string // client supplied file name
	Size         int64  // bytes
	MIME         string // declared by the client
	DetectedMIME string // sniffed from content
}

// Job is a single scan or audio request. Each job owns OutputDir exclusively.
type Job struct {
	ID        string // unix milliseconds at creation
	TraceID   string
	Input     Input
	OutputDir string
	Status    JobStatus
	CreatedAt time.Time
}

// ScanResult is the outcome of a successful score scan.
type ScanResult struct {
	Job          Job
	ArtifactPath string
	Chords       []MeasureChordResult
}

// AudioResult is the outcome of an accepted audio upload.
type AudioResult struct {
	Job             Job
	Gate            LanguageGateResult
	EstimatedChords []string
	LeadSheetPath   string
}

// LanguageGateResult is the language decision for an audio upload.
// DetectedLanguage is an ISO 639-3 code or "und".
type LanguageGateResult struct {
	DetectedLanguage string `json:"detectedLang"`
	Accepted         bool   `json:"accepted"`
	Source           string `json:"source"` // "metadata" or "filename"
	Text             string `json:"-"`
}

// UndeterminedLanguage is reported when text is too short or unclassifiable.
const UndeterminedLanguage = "und"
