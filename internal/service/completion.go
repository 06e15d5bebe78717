package service

import (
	"fmt"

	"github.com/sakif/cofounder-match/internal/apperror"
	"github.com/sakif/cofounder-match/internal/model"
)

// completion is the normalized data the onboarding gate checks.
type completion struct {
	photoCount        int
	currentlyBuilding string
	social            *model.Social
	workItems         []model.WorkItem
	videoURLs         []string
}

// validate runs the onboarding requirements in their fixed order and
// reports only the first failure. On success it returns the work items and
// video URLs with their URLs in canonical form.
func (c completion) validate() ([]model.WorkItem, []string, error) {
	if c.photoCount == 0 {
		return nil, nil, apperror.Precondition(apperror.CodePhotoRequired,
			"Add at least one profile photo before completing onboarding.")
	}
	if c.currentlyBuilding == "" {
		return nil, nil, apperror.Precondition(apperror.CodeCurrentlyBuildingRequired,
			"Currently building is required.")
	}
	if c.social == nil || c.social.Twitter == "" || c.social.GitHub == "" {
		return nil, nil, apperror.Precondition(apperror.CodeSocialRequired,
			"Twitter and GitHub are required.")
	}

	// Website and Instagram are checked but stored as typed.
	if c.social.Website != "" {
		if _, err := NormalizeHTTPURL(c.social.Website, "website"); err != nil {
			return nil, nil, err
		}
	}
	if c.social.Instagram != "" {
		if _, err := NormalizeHTTPURL(c.social.Instagram, "instagram"); err != nil {
			return nil, nil, err
		}
	}

	if len(c.workItems) == 0 {
		return nil, nil, apperror.Precondition(apperror.CodeWorkItemRequired,
			"Add at least one work item before completing onboarding.")
	}

	items := make([]model.WorkItem, len(c.workItems))
	for i, item := range c.workItems {
		if item.Title == "" {
			err := apperror.Precondition(apperror.CodeWorkItemTitleRequired,
				fmt.Sprintf("Work item %d must have a title.", i+1))
			err.Field = workItemField(i, "title")
			return nil, nil, err
		}
		if item.URL == "" {
			err := apperror.Precondition(apperror.CodeWorkItemURLRequired,
				fmt.Sprintf("Work item %d must have a URL.", i+1))
			err.Field = workItemField(i, "url")
			return nil, nil, err
		}
		normalized, err := NormalizeHTTPURL(item.URL, workItemField(i, "url"))
		if err != nil {
			return nil, nil, err
		}
		item.URL = normalized
		items[i] = item
	}

	videos := make([]string, len(c.videoURLs))
	for i, raw := range c.videoURLs {
		normalized, err := NormalizeHTTPURL(raw, fmt.Sprintf("projectVideoUrls[%d]", i))
		if err != nil {
			return nil, nil, err
		}
		videos[i] = normalized
	}

	return items, videos, nil
}

// storedCompletionError reports the first completion requirement p no
// longer meets, or nil.
func storedCompletionError(p *model.Profile) error {
	if !p.Role.Valid() {
		return invalidRole()
	}
	c := completion{
		photoCount:        len(p.Photos),
		currentlyBuilding: p.CurrentlyBuilding,
		social:            p.Social,
		workItems:         p.WorkItems,
		videoURLs:         p.ProjectVideoURLs,
	}
	_, _, err := c.validate()
	return err
}
