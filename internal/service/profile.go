package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/sakif/cofounder-match/internal/apperror"
	"github.com/sakif/cofounder-match/internal/auth"
	"github.com/sakif/cofounder-match/internal/model"
	"github.com/sakif/cofounder-match/internal/repository"
)

// DraftInput is a partial profile edit. Fields left Unset are not touched.
type DraftInput struct {
	Name              model.Field[string]           `json:"name,omitzero"`
	Username          model.Field[string]           `json:"username,omitzero"`
	Role              model.Field[model.Role]       `json:"role,omitzero"`
	Bio               model.Field[string]           `json:"bio,omitzero"`
	CurrentlyBuilding model.Field[string]           `json:"currentlyBuilding,omitzero"`
	Social            model.Field[model.Social]     `json:"social,omitzero"`
	ProjectVideoURLs  model.Field[[]string]         `json:"projectVideoUrls,omitzero"`
	ProductsWorkedOn  model.Field[[]string]         `json:"productsWorkedOn,omitzero"`
	WorkItems         model.Field[[]model.WorkItem] `json:"workItems,omitzero"`
}

// OnboardingInput is the full field set submitted to finish onboarding.
type OnboardingInput struct {
	Role              model.Role       `json:"role"`
	Bio               string           `json:"bio"`
	CurrentlyBuilding string           `json:"currentlyBuilding"`
	Social            model.Social     `json:"social"`
	ProjectVideoURLs  []string         `json:"projectVideoUrls"`
	ProductsWorkedOn  []string         `json:"productsWorkedOn"`
	WorkItems         []model.WorkItem `json:"workItems"`
}

// ProfileService owns every write to a profile. Each operation resolves the
// caller's row, then computes and stores its patch in one atomic update.
type ProfileService struct {
	repo   repository.ProfileRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewProfileService(repo repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *ProfileService) nowMillis() int64 {
	return s.now().UnixMilli()
}

func requireIdentity(id *auth.Identity) error {
	if id == nil || id.TokenIdentifier == "" {
		return apperror.Unauthorized("You must be signed in.")
	}
	return nil
}

// Me returns the caller's profile, or nil for anonymous callers and
// identities that have no row yet.
func (s *ProfileService) Me(ctx context.Context, id *auth.Identity) (*model.Profile, error) {
	if id == nil || id.TokenIdentifier == "" {
		return nil, nil
	}

	p, err := s.repo.GetByTokenIdentifier(ctx, id.TokenIdentifier)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting current profile: %w", err)
	}
	return p, nil
}

// Ensure resolves the caller's profile, creating it on first access.
func (s *ProfileService) Ensure(ctx context.Context, id *auth.Identity) (*model.Profile, error) {
	return s.mutate(ctx, id, func(*model.Profile) (model.ProfilePatch, error) {
		return model.ProfilePatch{}, nil
	})
}

// mutate resolves (or creates) the caller's row and applies fn's patch to it
// together with the identity refresh and the updatedAt touch.
func (s *ProfileService) mutate(ctx context.Context, id *auth.Identity, fn repository.UpdateFunc) (*model.Profile, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	current, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, current.ID, func(stored *model.Profile) (model.ProfilePatch, error) {
		patch, err := fn(stored)
		if err != nil {
			return patch, err
		}
		withIdentityHints(&patch, stored, id)
		patch.UpdatedAt = s.nowMillis()
		return patch, nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return updated, nil
}

// resolve finds the caller's row, inserting an empty one when absent.
func (s *ProfileService) resolve(ctx context.Context, id *auth.Identity) (*model.Profile, error) {
	existing, err := s.repo.GetByTokenIdentifier(ctx, id.TokenIdentifier)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("resolving current profile: %w", err)
	}

	now := s.nowMillis()
	p := &model.Profile{
		TokenIdentifier:  id.TokenIdentifier,
		ExternalID:       id.Subject,
		Name:             trimToAbsent(id.Name),
		Username:         trimToAbsent(id.Nickname),
		Photos:           []model.Photo{},
		ProjectVideoURLs: []string{},
		ProductsWorkedOn: []string{},
		WorkItems:        []model.WorkItem{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		s.logger.Error("failed to create profile",
			slog.String("token_identifier", id.TokenIdentifier),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	if created {
		s.logger.Info("profile created", slog.String("id", p.ID))
	}

	// A concurrent first access may have won the insert; read whichever row exists.
	stored, err := s.repo.GetByTokenIdentifier(ctx, id.TokenIdentifier)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Code:    apperror.CodeNotFound,
			Message: "User profile could not be initialized.",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("re-reading created profile: %w", err)
	}
	return stored, nil
}

// withIdentityHints refreshes identity-sourced columns. Name and username
// are only filled while empty, and never when the patch already sets them.
func withIdentityHints(patch *model.ProfilePatch, stored *model.Profile, id *auth.Identity) {
	if patch.ExternalID.IsUnset() && id.Subject != "" && id.Subject != stored.ExternalID {
		patch.ExternalID = model.Set(id.Subject)
	}
	if patch.Name.IsUnset() && stored.Name == "" {
		if v := trimToAbsent(id.Name); v != "" {
			patch.Name = model.Set(v)
		}
	}
	if patch.Username.IsUnset() && stored.Username == "" {
		if v := trimToAbsent(id.Nickname); v != "" {
			patch.Username = model.Set(v)
		}
	}
}

// SaveDraft stores a partial edit without URL validation. A completed
// profile whose edit breaks the completion requirements goes back to
// incomplete in the same write.
func (s *ProfileService) SaveDraft(ctx context.Context, id *auth.Identity, in DraftInput) (string, error) {
	if role, ok := in.Role.Get(); ok && !role.Valid() {
		return "", invalidRole()
	}
	if items, ok := in.WorkItems.Get(); ok {
		if err := validateWorkItemShapes(items); err != nil {
			return "", err
		}
	}

	p, err := s.mutate(ctx, id, func(stored *model.Profile) (model.ProfilePatch, error) {
		patch := model.ProfilePatch{
			Name:              normalizeText(in.Name),
			Username:          normalizeText(in.Username),
			Role:              in.Role,
			Bio:               normalizeText(in.Bio),
			CurrentlyBuilding: normalizeText(in.CurrentlyBuilding),
		}

		switch {
		case in.Social.IsSet():
			if social := normalizeSocial(in.Social.Value()); social != nil {
				patch.Social = model.Set(*social)
			} else {
				patch.Social = model.Clear[model.Social]()
			}
		case in.Social.IsClear():
			patch.Social = model.Clear[model.Social]()
		}

		patch.ProjectVideoURLs = mapList(in.ProjectVideoURLs, NormalizeStringList)
		patch.ProductsWorkedOn = mapList(in.ProductsWorkedOn, NormalizeStringList)
		patch.WorkItems = mapList(in.WorkItems, normalizeWorkItems)

		s.keepInvariant(stored, &patch)
		return patch, nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug("draft saved", slog.String("id", p.ID))
	return p.ID, nil
}

// mapList normalizes a Set list; Clear stays Clear.
func mapList[T any](f model.Field[[]T], normalize func([]T) []T) model.Field[[]T] {
	if v, ok := f.Get(); ok {
		return model.Set(normalize(v))
	}
	return f
}

// keepInvariant demotes a completed profile the patch would leave incomplete.
func (s *ProfileService) keepInvariant(stored *model.Profile, patch *model.ProfilePatch) {
	if !stored.OnboardingCompleted || !patch.OnboardingCompleted.IsUnset() {
		return
	}

	next := *stored
	patch.Apply(&next)

	if err := storedCompletionError(&next); err != nil {
		patch.OnboardingCompleted = model.Set(false)
		s.logger.Info("profile no longer complete",
			slog.String("id", stored.ID),
			slog.String("code", apperror.CodeOf(err)),
		)
	}
}

// CompleteOnboarding validates the full field set against the stored photos
// and, when every requirement holds, stores it and marks the profile complete.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, id *auth.Identity, in OnboardingInput) (string, error) {
	if !in.Role.Valid() {
		return "", invalidRole()
	}
	if err := validateWorkItemShapes(in.WorkItems); err != nil {
		return "", err
	}

	p, err := s.mutate(ctx, id, func(stored *model.Profile) (model.ProfilePatch, error) {
		c := completion{
			photoCount:        len(stored.Photos),
			currentlyBuilding: trimToAbsent(in.CurrentlyBuilding),
			social:            normalizeSocial(in.Social),
			workItems:         normalizeWorkItems(in.WorkItems),
			videoURLs:         NormalizeStringList(in.ProjectVideoURLs),
		}

		items, videos, err := c.validate()
		if err != nil {
			return model.ProfilePatch{}, err
		}

		next := *stored
		next.SyncImageURL()

		return model.ProfilePatch{
			Role:                model.Set(in.Role),
			Bio:                 normalizeText(model.Set(in.Bio)),
			CurrentlyBuilding:   model.Set(c.currentlyBuilding),
			Social:              model.Set(*c.social),
			ProjectVideoURLs:    model.Set(videos),
			ProductsWorkedOn:    model.Set(NormalizeStringList(in.ProductsWorkedOn)),
			WorkItems:           model.Set(items),
			OnboardingCompleted: model.Set(true),
			ImageURL:            textField(next.ImageURL),
		}, nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("onboarding completed", slog.String("id", p.ID))
	return p.ID, nil
}

// AddPhoto appends a photo to the caller's list. Re-adding a stored key
// returns the list unchanged.
func (s *ProfileService) AddPhoto(ctx context.Context, id *auth.Identity, rawURL, key string) ([]model.Photo, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	key = trimToAbsent(key)
	if key == "" {
		return nil, apperror.Precondition(apperror.CodePhotoKeyRequired, "Photo key is required.")
	}
	photoURL, err := NormalizeHTTPURL(rawURL, "photoUrl")
	if err != nil {
		return nil, err
	}

	p, err := s.mutate(ctx, id, func(stored *model.Profile) (model.ProfilePatch, error) {
		if stored.HasPhoto(key) {
			return model.ProfilePatch{}, nil
		}
		if len(stored.Photos) >= model.MaxPhotos {
			return model.ProfilePatch{}, apperror.LimitReached(apperror.CodePhotoLimitReached,
				fmt.Sprintf("You can upload up to %d photos.", model.MaxPhotos))
		}

		photos := append(slices.Clone(stored.Photos), model.Photo{
			Key:        key,
			URL:        photoURL,
			UploadedAt: s.nowMillis(),
		})
		return photoPatch(photos), nil
	})
	if err != nil {
		return nil, err
	}
	return p.Photos, nil
}

// RemovePhoto drops the photo with key. An unknown key changes nothing.
func (s *ProfileService) RemovePhoto(ctx context.Context, id *auth.Identity, key string) ([]model.Photo, error) {
	key = trimToAbsent(key)

	p, err := s.mutate(ctx, id, func(stored *model.Profile) (model.ProfilePatch, error) {
		if !stored.HasPhoto(key) {
			return model.ProfilePatch{}, nil
		}

		photos := slices.DeleteFunc(slices.Clone(stored.Photos), func(photo model.Photo) bool {
			return photo.Key == key
		})
		patch := photoPatch(photos)
		s.keepInvariant(stored, &patch)
		return patch, nil
	})
	if err != nil {
		return nil, err
	}
	return p.Photos, nil
}

// photoPatch writes a new photo list together with its derived imageUrl.
func photoPatch(photos []model.Photo) model.ProfilePatch {
	next := model.Profile{Photos: photos}
	next.SyncImageURL()
	return model.ProfilePatch{
		Photos:   model.Set(photos),
		ImageURL: textField(next.ImageURL),
	}
}

// ListDiscoverable returns completed profiles, newest first, without the
// caller's own.
func (s *ProfileService) ListDiscoverable(ctx context.Context, id *auth.Identity) ([]model.Profile, error) {
	opts := repository.DiscoverOptions{Limit: repository.DiscoverLimit}
	if id != nil {
		opts.ExcludeTokenIdentifier = id.TokenIdentifier
	}

	profiles, err := s.repo.ListDiscoverable(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list profiles", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return profiles, nil
}

// GetPublic returns a completed profile by id. Incomplete profiles are
// reported as not found.
func (s *ProfileService) GetPublic(ctx context.Context, profileID string) (*model.Profile, error) {
	profileID = trimToAbsent(profileID)
	if profileID == "" {
		return nil, apperror.ValidationFailed("id", "profile id is required")
	}

	p, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !p.OnboardingCompleted {
		return nil, apperror.NotFound("profile", profileID)
	}
	return p, nil
}

func textField(v string) model.Field[string] {
	if v == "" {
		return model.Clear[string]()
	}
	return model.Set(v)
}

func invalidRole() error {
	return apperror.ValidationFailed("role", "role must be one of builder, designer, marketer, other.")
}
