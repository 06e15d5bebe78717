package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sakif/cofounder-match/internal/apperror"
	"github.com/sakif/cofounder-match/internal/auth"
	"github.com/sakif/cofounder-match/internal/model"
	"github.com/sakif/cofounder-match/internal/repository"
)

// =========================================================================
// FAKE REPOSITORY
// =========================================================================
//
// fakeProfileRepo implements repository.ProfileRepository in memory.
// It stores copies so callers cannot reach into its state, and counts
// writes so tests can assert that a call wrote nothing.

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile // by id
	nextID   int
	updates  int
	patches  []model.ProfilePatch

	// getErr, when set, is returned by every read.
	getErr error
}

var _ repository.ProfileRepository = (*fakeProfileRepo)(nil)

func newFakeRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.Profile)}
}

func cloneProfile(p *model.Profile) *model.Profile {
	c := *p
	c.Photos = slices.Clone(p.Photos)
	c.ProjectVideoURLs = slices.Clone(p.ProjectVideoURLs)
	c.ProductsWorkedOn = slices.Clone(p.ProductsWorkedOn)
	c.WorkItems = slices.Clone(p.WorkItems)
	if p.Social != nil {
		social := *p.Social
		c.Social = &social
	}
	return &c
}

func (m *fakeProfileRepo) GetByTokenIdentifier(_ context.Context, token string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, p := range m.profiles {
		if p.TokenIdentifier == token {
			return cloneProfile(p), nil
		}
	}
	return nil, apperror.NotFound("profile", token)
}

func (m *fakeProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	return cloneProfile(p), nil
}

func (m *fakeProfileRepo) Create(_ context.Context, p *model.Profile) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.profiles {
		if existing.TokenIdentifier == p.TokenIdentifier {
			return false, nil
		}
	}
	m.nextID++
	p.ID = fmt.Sprintf("mock-%d", m.nextID)
	m.profiles[p.ID] = cloneProfile(p)
	return true, nil
}

func (m *fakeProfileRepo) Update(_ context.Context, id string, fn repository.UpdateFunc) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}

	current := cloneProfile(stored)
	patch, err := fn(current)
	if err != nil {
		return nil, err
	}

	patch.Apply(stored)
	m.updates++
	m.patches = append(m.patches, patch)
	return cloneProfile(stored), nil
}

func (m *fakeProfileRepo) ListDiscoverable(_ context.Context, opts repository.DiscoverOptions) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Profile
	for _, p := range m.profiles {
		if p.OnboardingCompleted && p.TokenIdentifier != opts.ExcludeTokenIdentifier {
			out = append(out, *cloneProfile(p))
		}
	}
	slices.SortFunc(out, func(a, b model.Profile) int { return int(b.UpdatedAt - a.UpdatedAt) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// put stores p directly, bypassing the service.
func (m *fakeProfileRepo) put(p *model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = cloneProfile(p)
}

func (m *fakeProfileRepo) get(id string) *model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneProfile(m.profiles[id])
}

func (m *fakeProfileRepo) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

func (m *fakeProfileRepo) lastPatch() model.ProfilePatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patches[len(m.patches)-1]
}

var errDBDown = errors.New("database is locked")

// =========================================================================
// HELPERS
// =========================================================================

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fixedClock returns a clock starting at start and advancing 1ms per call.
func fixedClock(start int64) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := time.UnixMilli(next)
		next++
		return t
	}
}

func newTestProfileService() (*ProfileService, *fakeProfileRepo) {
	repo := newFakeRepo()
	svc := NewProfileService(repo, testLogger)
	svc.now = fixedClock(1_000_000)
	return svc, repo
}

var (
	alice = auth.NewIdentity("https://id.example", "alice", "Alice A", "alice")
	bob   = auth.NewIdentity("https://id.example", "bob", "", "")
	carol = auth.NewIdentity("https://id.example", "carol", "Carol", "")
)

// seedProfile stores a profile for id with the given fields already set.
func seedProfile(repo *fakeProfileRepo, id *auth.Identity, mutate func(p *model.Profile)) *model.Profile {
	repo.mu.Lock()
	repo.nextID++
	p := &model.Profile{
		ID:               fmt.Sprintf("mock-%d", repo.nextID),
		TokenIdentifier:  id.TokenIdentifier,
		ExternalID:       id.Subject,
		Photos:           []model.Photo{},
		ProjectVideoURLs: []string{},
		ProductsWorkedOn: []string{},
		WorkItems:        []model.WorkItem{},
		CreatedAt:        1,
		UpdatedAt:        1,
	}
	repo.mu.Unlock()
	if mutate != nil {
		mutate(p)
	}
	repo.put(p)
	return p
}

// completeProfile fills p with data that passes the onboarding gate.
func completeProfile(p *model.Profile) {
	p.Role = model.RoleBuilder
	p.CurrentlyBuilding = "A rocket"
	p.Social = &model.Social{Twitter: "ada", GitHub: "ada"}
	p.Photos = []model.Photo{{Key: "k1", URL: "https://cdn.example/1.png", UploadedAt: 1}}
	p.ImageURL = "https://cdn.example/1.png"
	p.WorkItems = []model.WorkItem{{
		ID: "w1", Type: model.WorkItemSoftware, Title: "Engine",
		URL: "https://example.com/", LinkStatus: model.LinkUnchecked,
	}}
	p.OnboardingCompleted = true
}

func validOnboarding() OnboardingInput {
	return OnboardingInput{
		Role:              model.RoleBuilder,
		Bio:               "  I build things  ",
		CurrentlyBuilding: " A rocket ",
		Social:            model.Social{Twitter: " ada ", GitHub: "ada"},
		ProjectVideoURLs:  []string{"https://video.example/a", "https://video.example/a", " "},
		ProductsWorkedOn:  []string{"x", " x ", "y"},
		WorkItems: []model.WorkItem{{
			Type: model.WorkItemSoftware, Title: " Engine ", URL: "HTTPS://Example.COM",
		}},
	}
}
