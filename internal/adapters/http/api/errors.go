package api

import (
	"errors"
	"net/http"

	"github.com/okian/chordscan/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrEmptyUpload  = errors.New("empty upload")
	ErrBadMultipart = errors.New("expected a multipart/form-data body")
	ErrUploadsDir   = errors.New("uploads directory unavailable")
	ErrOutputURL    = errors.New("output is not under a served directory")
)

// StatusFor maps a pipeline error to its HTTP status. Client mistakes are
// 4xx, recognition results that found nothing usable are 422 and engine or
// I/O trouble is 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrEmptyUpload), errors.Is(err, ErrBadMultipart):
		return http.StatusBadRequest
	}
	switch model.KindOf(err) {
	case model.KindUnsupportedInputType, model.KindLanguageRejected:
		return http.StatusBadRequest
	case model.KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.KindBackpressure:
		return http.StatusTooManyRequests
	case model.KindNoArtifact, model.KindEmptyScore, model.KindNoChordRecognized:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
