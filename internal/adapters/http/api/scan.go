package api

import (
	"fmt"
	"net/http"

	"github.com/okian/chordscan/internal/adapters/workspace"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/internal/domain/types"
	"github.com/okian/chordscan/pkg/logger"
)

// ScanHandler handles score uploads.
type ScanHandler struct {
	deps   Dependencies
	intake *intake
	logger logger.Logger
}

// HandleScan handles POST /omr/scan and its alias /chordscan/omr.
func (h *ScanHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, err := h.intake.receive(w, r)
	if err != nil {
		writeFailure(ctx, w, h.logger, err)
		return
	}

	res, err := h.deps.ScanScore(ctx, in)
	if err != nil {
		writeFailure(ctx, w, h.logger, err)
		return
	}

	url, err := publicURL(omrOutPrefix, h.deps.OMROutDir(), res.ArtifactPath)
	if err != nil {
		writeFailure(ctx, w, h.logger, model.WrapKind(model.KindIO, "could not publish the recognized score", err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewScanResponse(res, url))
}

// publicURL maps a file under root to its URL under prefix.
func publicURL(prefix, root, path string) (string, error) {
	rel, err := workspace.RelPath(root, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOutputURL, err)
	}
	return prefix + rel, nil
}
