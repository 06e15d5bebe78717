package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/cofounder-match/internal/service"
)

type LinkHandler struct {
	links  *service.LinkService
	logger *slog.Logger
}

func NewLinkHandler(links *service.LinkService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{links: links, logger: logger}
}

// HandleRecheck probes every work item URL of the caller and returns the
// outcome counts.
//
// HTTP: POST /api/me/links/recheck
// Auth: required, rate limited per caller
func (h *LinkHandler) HandleRecheck(w http.ResponseWriter, r *http.Request) {
	summary, err := h.links.RecheckLinks(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
