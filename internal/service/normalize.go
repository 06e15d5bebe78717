package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/sakif/cofounder-match/internal/apperror"
	"github.com/sakif/cofounder-match/internal/model"
)

// trimToAbsent trims s; the empty result means "absent".
func trimToAbsent(s string) string {
	return strings.TrimSpace(s)
}

// normalizeText trims a Set value and turns a blank one into Clear.
func normalizeText(f model.Field[string]) model.Field[string] {
	v, ok := f.Get()
	if !ok {
		return f
	}
	if v = trimToAbsent(v); v == "" {
		return model.Clear[string]()
	}
	return model.Set(v)
}

// NormalizeStringList trims every entry, drops blanks and later duplicates,
// and keeps first-seen order. The result is never nil.
func NormalizeStringList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// normalizeSocial trims each member and returns nil when nothing is left.
func normalizeSocial(s model.Social) *model.Social {
	out := model.Social{
		Twitter:   trimToAbsent(s.Twitter),
		GitHub:    trimToAbsent(s.GitHub),
		Website:   trimToAbsent(s.Website),
		Instagram: trimToAbsent(s.Instagram),
	}
	if out.IsEmpty() {
		return nil
	}
	return &out
}

// normalizeWorkItems trims text members, gives blank ids a fresh one and
// defaults a missing link status to unchecked. Order and count are kept.
func normalizeWorkItems(items []model.WorkItem) []model.WorkItem {
	out := make([]model.WorkItem, 0, len(items))
	for _, item := range items {
		id := trimToAbsent(item.ID)
		if id == "" {
			id = newWorkItemID()
		}
		status := item.LinkStatus
		if status == "" {
			status = model.LinkUnchecked
		}
		out = append(out, model.WorkItem{
			ID:         id,
			Type:       item.Type,
			Title:      trimToAbsent(item.Title),
			Summary:    trimToAbsent(item.Summary),
			URL:        trimToAbsent(item.URL),
			LinkStatus: status,
		})
	}
	return out
}

// newWorkItemID returns a unique, lexically time-ordered id.
func newWorkItemID() string {
	return "wi_" + strings.ToLower(ulid.Make().String())
}

// NormalizeHTTPURL parses raw as an absolute http or https URL and returns
// its canonical string form. Scheme and host are lowercased and an empty
// path becomes "/". Anything else fails with INVALID_URL naming field.
func NormalizeHTTPURL(raw, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperror.InvalidURL(field)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", apperror.InvalidURL(field)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", apperror.InvalidURL(field)
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return "", apperror.InvalidURL(field)
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// isHTTPURL reports whether raw would pass NormalizeHTTPURL.
func isHTTPURL(raw string) bool {
	_, err := NormalizeHTTPURL(raw, "url")
	return err == nil
}

func workItemField(i int, name string) string {
	return fmt.Sprintf("workItems[%d].%s", i, name)
}

// validateWorkItemShapes rejects enum values outside their closed sets.
func validateWorkItemShapes(items []model.WorkItem) error {
	for i, item := range items {
		if !item.Type.Valid() {
			return apperror.ValidationFailed(workItemField(i, "type"),
				fmt.Sprintf("%s must be one of software, hardware, design, content, marketing, other.", workItemField(i, "type")))
		}
		if item.LinkStatus != "" && !item.LinkStatus.Valid() {
			return apperror.ValidationFailed(workItemField(i, "linkStatus"),
				fmt.Sprintf("%s must be one of unchecked, live, dead.", workItemField(i, "linkStatus")))
		}
	}
	return nil
}
