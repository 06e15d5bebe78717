// Package model defines the data structures used throughout the application.
package model

// MaxPhotos is the most photos one profile can hold.
const MaxPhotos = 4

type Role string

const (
	RoleBuilder  Role = "builder"
	RoleDesigner Role = "designer"
	RoleMarketer Role = "marketer"
	RoleOther    Role = "other"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuilder, RoleDesigner, RoleMarketer, RoleOther:
		return true
	}
	return false
}

type WorkItemType string

const (
	WorkItemSoftware  WorkItemType = "software"
	WorkItemHardware  WorkItemType = "hardware"
	WorkItemDesign    WorkItemType = "design"
	WorkItemContent   WorkItemType = "content"
	WorkItemMarketing WorkItemType = "marketing"
	WorkItemOther     WorkItemType = "other"
)

func (t WorkItemType) Valid() bool {
	switch t {
	case WorkItemSoftware, WorkItemHardware, WorkItemDesign,
		WorkItemContent, WorkItemMarketing, WorkItemOther:
		return true
	}
	return false
}

// LinkStatus is the outcome of the most recent liveness probe of a work item URL.
type LinkStatus string

const (
	LinkUnchecked LinkStatus = "unchecked"
	LinkLive      LinkStatus = "live"
	LinkDead      LinkStatus = "dead"
)

func (s LinkStatus) Valid() bool {
	switch s {
	case LinkUnchecked, LinkLive, LinkDead:
		return true
	}
	return false
}

// Social holds a profile's external handles and links. Empty members are absent.
type Social struct {
	Twitter   string `json:"twitter,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Website   string `json:"website,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

func (s Social) IsEmpty() bool {
	return s.Twitter == "" && s.GitHub == "" && s.Website == "" && s.Instagram == ""
}

// Photo is an uploaded image. Only the storage key and public URL are kept;
// the bytes live with the storage provider.
type Photo struct {
	Key        string `json:"key"`
	URL        string `json:"url"`
	UploadedAt int64  `json:"uploadedAt"` // epoch milliseconds
}

// WorkItem is one portfolio entry.
type WorkItem struct {
	ID         string       `json:"id"`
	Type       WorkItemType `json:"type"`
	Title      string       `json:"title"`
	Summary    string       `json:"summary"`
	URL        string       `json:"url"`
	LinkStatus LinkStatus   `json:"linkStatus,omitempty"`
}

// Profile is the single stored row per signed-in identity.
//
// String fields use "" for absent; the store maps "" to NULL.
// Timestamps are epoch milliseconds.
type Profile struct {
	ID                  string     `json:"id"`
	TokenIdentifier     string     `json:"-"` // issuer|subject of the identity, unique
	ExternalID          string     `json:"-"` // identity subject
	Name                string     `json:"name,omitempty"`
	Username            string     `json:"username,omitempty"`
	ImageURL            string     `json:"imageUrl,omitempty"` // cache of Photos[0].URL, see SyncImageURL
	Role                Role       `json:"role,omitempty"`
	Bio                 string     `json:"bio,omitempty"`
	CurrentlyBuilding   string     `json:"currentlyBuilding,omitempty"`
	Social              *Social    `json:"social,omitempty"`
	Photos              []Photo    `json:"photos"`
	ProjectVideoURLs    []string   `json:"projectVideoUrls"`
	ProductsWorkedOn    []string   `json:"productsWorkedOn"`
	WorkItems           []WorkItem `json:"workItems"`
	OnboardingCompleted bool       `json:"onboardingCompleted"`
	CreatedAt           int64      `json:"createdAt"`
	UpdatedAt           int64      `json:"updatedAt"`
}

// SyncImageURL recomputes the denormalized ImageURL from the photo list.
// Every change to Photos must be followed by a call to it.
func (p *Profile) SyncImageURL() {
	p.ImageURL = ""
	if len(p.Photos) > 0 {
		p.ImageURL = p.Photos[0].URL
	}
}

// HasPhoto reports whether a photo with key is already stored.
func (p *Profile) HasPhoto(key string) bool {
	for _, photo := range p.Photos {
		if photo.Key == key {
			return true
		}
	}
	return false
}
