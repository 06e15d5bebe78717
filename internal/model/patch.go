package model

// ProfilePatch is a partial update of a Profile. Unset fields keep their
// stored value; Clear resets a field to its absent or empty form.
type ProfilePatch struct {
	ExternalID          Field[string]
	Name                Field[string]
	Username            Field[string]
	ImageURL            Field[string]
	Role                Field[Role]
	Bio                 Field[string]
	CurrentlyBuilding   Field[string]
	Social              Field[Social]
	Photos              Field[[]Photo]
	ProjectVideoURLs    Field[[]string]
	ProductsWorkedOn    Field[[]string]
	WorkItems           Field[[]WorkItem]
	OnboardingCompleted Field[bool]
	UpdatedAt           int64
}

// Apply writes the patch onto p in memory.
func (patch ProfilePatch) Apply(p *Profile) {
	applyField(&p.ExternalID, patch.ExternalID)
	applyField(&p.Name, patch.Name)
	applyField(&p.Username, patch.Username)
	applyField(&p.ImageURL, patch.ImageURL)
	applyField(&p.Role, patch.Role)
	applyField(&p.Bio, patch.Bio)
	applyField(&p.CurrentlyBuilding, patch.CurrentlyBuilding)
	applyField(&p.OnboardingCompleted, patch.OnboardingCompleted)

	switch {
	case patch.Social.IsSet():
		social := patch.Social.Value()
		p.Social = &social
	case patch.Social.IsClear():
		p.Social = nil
	}

	applyList(&p.Photos, patch.Photos)
	applyList(&p.ProjectVideoURLs, patch.ProjectVideoURLs)
	applyList(&p.ProductsWorkedOn, patch.ProductsWorkedOn)
	applyList(&p.WorkItems, patch.WorkItems)

	if patch.UpdatedAt != 0 {
		p.UpdatedAt = patch.UpdatedAt
	}
}

func applyField[T any](dst *T, f Field[T]) {
	switch {
	case f.IsSet():
		*dst = f.Value()
	case f.IsClear():
		var zero T
		*dst = zero
	}
}

// Lists are never nil once stored, so Clear yields an empty list.
func applyList[T any](dst *[]T, f Field[[]T]) {
	switch {
	case f.IsSet():
		if v := f.Value(); v != nil {
			*dst = v
		} else {
			*dst = []T{}
		}
	case f.IsClear():
		*dst = []T{}
	}
}
