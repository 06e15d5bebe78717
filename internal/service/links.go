package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/cofounder-match/internal/apperror"
	"github.com/sakif/cofounder-match/internal/auth"
	"github.com/sakif/cofounder-match/internal/model"
	"github.com/sakif/cofounder-match/internal/repository"
)

// LinkChecker probes one URL. Implementations never fail; an
// inconclusive probe is model.LinkUnchecked.
type LinkChecker interface {
	Check(ctx context.Context, rawURL string) model.LinkStatus
}

// LinkSummary counts the outcome of one recheck. Checked always equals
// Live + Dead + Unchecked.
type LinkSummary struct {
	Checked   int `json:"checked"`
	Live      int `json:"live"`
	Dead      int `json:"dead"`
	Unchecked int `json:"unchecked"`
}

func (s *LinkSummary) add(status model.LinkStatus) {
	s.Checked++
	switch status {
	case model.LinkLive:
		s.Live++
	case model.LinkDead:
		s.Dead++
	default:
		s.Unchecked++
	}
}

type LinkService struct {
	repo    repository.ProfileRepository
	checker LinkChecker
	logger  *slog.Logger
	now     func() time.Time
}

func NewLinkService(repo repository.ProfileRepository, checker LinkChecker, logger *slog.Logger) *LinkService {
	return &LinkService{
		repo:    repo,
		checker: checker,
		logger:  logger,
		now:     time.Now,
	}
}

// RecheckLinks probes every work item URL of the caller, one at a time in
// list order, and stores the new statuses in a single write.
//
// Probing happens outside the write. Statuses are merged into the list as
// stored at write time by item id and URL, so items edited meanwhile keep
// their own state. A context cancelled before the write leaves the stored
// statuses unchanged.
func (s *LinkService) RecheckLinks(ctx context.Context, id *auth.Identity) (*LinkSummary, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetByTokenIdentifier(ctx, id.TokenIdentifier)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized("You must be signed in.")
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile for recheck: %w", err)
	}

	summary := &LinkSummary{}
	statuses := make(map[probeKey]model.LinkStatus, len(profile.WorkItems))

	for _, item := range profile.WorkItems {
		status := s.checker.Check(ctx, item.URL)
		statuses[probeKey{id: item.ID, url: item.URL}] = status
		summary.add(status)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("recheck interrupted: %w", err)
	}

	_, err = s.repo.Update(ctx, profile.ID, func(stored *model.Profile) (model.ProfilePatch, error) {
		items := make([]model.WorkItem, len(stored.WorkItems))
		for i, item := range stored.WorkItems {
			if status, ok := statuses[probeKey{id: item.ID, url: item.URL}]; ok {
				item.LinkStatus = status
			}
			items[i] = item
		}
		return model.ProfilePatch{
			WorkItems: model.Set(items),
			UpdatedAt: s.now().UnixMilli(),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("saving link statuses: %w", err)
	}

	s.logger.Info("links rechecked",
		slog.String("id", profile.ID),
		slog.Int("checked", summary.Checked),
		slog.Int("live", summary.Live),
		slog.Int("dead", summary.Dead),
		slog.Int("unchecked", summary.Unchecked),
	)

	return summary, nil
}

type probeKey struct {
	id  string
	url string
}
