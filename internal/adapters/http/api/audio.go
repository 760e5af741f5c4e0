package api

import (
	"net/http"

	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/internal/domain/types"
	"github.com/okian/chordscan/pkg/logger"
)

// AudioHandler handles song uploads for the language-gated lead sheet.
type AudioHandler struct {
	deps   Dependencies
	intake *intake
	logger logger.Logger
}

// HandleAudio handles POST /audio/score.
func (h *AudioHandler) HandleAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, err := h.intake.receive(w, r)
	if err != nil {
		writeFailure(ctx, w, h.logger, err)
		return
	}

	res, err := h.deps.ScoreAudio(ctx, in)
	if err != nil {
		writeFailure(ctx, w, h.logger, err)
		return
	}

	url, err := publicURL(audioOutPrefix, h.deps.AudioOutDir(), res.LeadSheetPath)
	if err != nil {
		writeFailure(ctx, w, h.logger, model.WrapKind(model.KindIO, "could not publish the lead sheet", err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewAudioResponse(res, url))
}
