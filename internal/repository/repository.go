package repository

import (
	"context"

	"github.com/sakif/cofounder-match/internal/model"
)

// DiscoverLimit caps how many profiles one discovery listing returns.
const DiscoverLimit = 100

type DiscoverOptions struct {
	Limit                  int    // <= 0 or > DiscoverLimit means DiscoverLimit
	ExcludeTokenIdentifier string // caller's own profile, "" for anonymous
}

// UpdateFunc inspects the current stored profile and returns the patch to
// write. Returning an error aborts the update with nothing written.
type UpdateFunc func(current *model.Profile) (model.ProfilePatch, error)

type ProfileRepository interface {
	// GetByTokenIdentifier returns an apperror.ErrNotFound error when no
	// profile belongs to the identity.
	GetByTokenIdentifier(ctx context.Context, tokenIdentifier string) (*model.Profile, error)
	GetByID(ctx context.Context, id string) (*model.Profile, error)

	// Create inserts p, assigning its ID. It reports false and writes
	// nothing when a profile for p.TokenIdentifier already exists.
	Create(ctx context.Context, p *model.Profile) (bool, error)

	// Update runs fn and writes its patch atomically with the read it was
	// computed from. It returns the profile as stored afterwards.
	Update(ctx context.Context, id string, fn UpdateFunc) (*model.Profile, error)

	// ListDiscoverable returns completed profiles, most recently updated first.
	ListDiscoverable(ctx context.Context, opts DiscoverOptions) ([]model.Profile, error)
}
