package model

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so callers can branch without string matching.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindUnsupportedInputType
	KindFileTooLarge
	KindEngineNotFound
	KindEngineMisconfigured
	KindEngineFailed
	KindTimeout
	KindNoArtifact
	KindMalformedArtifact
	KindParseError
	KindEmptyScore
	KindNoChordRecognized
	KindLanguageRejected
	KindBackpressure
	KindIO
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindUnsupportedInputType: "unsupported_input_type",
	KindFileTooLarge:         "file_too_large",
	KindEngineNotFound:       "engine_not_found",
	KindEngineMisconfigured:  "engine_misconfigured",
	KindEngineFailed:         "engine_failed",
	KindTimeout:              "timeout",
	KindNoArtifact:           "no_artifact",
	KindMalformedArtifact:    "malformed_artifact",
	KindParseError:           "parse_error",
	KindEmptyScore:           "empty_score",
	KindNoChordRecognized:    "no_chord_recognized",
	KindLanguageRejected:     "language_rejected",
	KindBackpressure:         "backpressure",
	KindIO:                   "io_error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Error is a classified pipeline failure. Optional fields carry the data a
// caller needs to report the failure: engine output, the detected language,
// or measures that parsed but produced no chord.
type Error struct {
	Kind             Kind
	Message          string
	Diagnostics      string
	ExitCode         int
	DetectedLanguage string
	Chords           []MeasureChordResult
	Cause            error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// NewKind creates an Error of the given kind.
func NewKind(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapKind creates an Error of the given kind around cause.
func WrapKind(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// AsError finds the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnknown when err is not classified.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
