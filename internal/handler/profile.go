package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/cofounder-match/internal/auth"
	"github.com/sakif/cofounder-match/internal/model"
	"github.com/sakif/cofounder-match/internal/service"
)

// ProfileHandler exposes the caller's own profile and the public directory.
//
// ROUTES:
//   - GET    /api/me                → HandleMe
//   - POST   /api/me                → HandleEnsure
//   - PATCH  /api/me                → HandleSaveDraft
//   - POST   /api/me/onboarding     → HandleCompleteOnboarding
//   - POST   /api/me/photos         → HandleAddPhoto
//   - DELETE /api/me/photos/{key}   → HandleRemovePhoto
//   - GET    /api/profiles          → HandleList
//   - GET    /api/profiles/{id}     → HandleGet
//
// The handler only decodes, calls the service and encodes. Every rule
// about what may be written lives in service.ProfileService.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// callerFrom returns the identity set by the auth middleware, or nil.
func callerFrom(r *http.Request) *auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

// HandleMe returns the caller's profile, or JSON null when signed out or
// not yet created.
//
// HTTP: GET /api/me
// Auth: optional
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Me(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleEnsure creates the caller's profile on first call.
//
// HTTP: POST /api/me
func (h *ProfileHandler) HandleEnsure(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Ensure(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: p.ID})
}

// HandleSaveDraft stores a partial edit.
//
// HTTP: PATCH /api/me
//
// TRI-STATE BODY:
// A key left out of the body is not touched, "key": null clears the
// column and any other value sets it. See model.Field.
func (h *ProfileHandler) HandleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var in service.DraftInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.profiles.SaveDraft(r.Context(), callerFrom(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

// HandleCompleteOnboarding validates the submitted profile and marks it
// complete. Failures report the first unmet requirement by code.
//
// HTTP: POST /api/me/onboarding
func (h *ProfileHandler) HandleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var in service.OnboardingInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.profiles.CompleteOnboarding(r.Context(), callerFrom(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

type addPhotoRequest struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// HandleAddPhoto records an uploaded photo and returns the photo list.
//
// HTTP: POST /api/me/photos
// REQUEST BODY: {"url": "https://...", "key": "storage-key"}
func (h *ProfileHandler) HandleAddPhoto(w http.ResponseWriter, r *http.Request) {
	var req addPhotoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	photos, err := h.profiles.AddPhoto(r.Context(), callerFrom(r), req.URL, req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// HandleRemovePhoto deletes the photo stored under {key}.
//
// HTTP: DELETE /api/me/photos/{key}
func (h *ProfileHandler) HandleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	photos, err := h.profiles.RemovePhoto(r.Context(), callerFrom(r), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// HandleList returns up to 100 completed profiles, newest first. A
// signed-in caller does not see their own profile.
//
// HTTP: GET /api/profiles
// Auth: optional
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.ListDiscoverable(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleGet returns one completed profile.
//
// HTTP: GET /api/profiles/{id}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
