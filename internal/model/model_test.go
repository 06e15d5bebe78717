package model

import (
	"encoding/json"
	"testing"
)

type draftBody struct {
	Name Field[string]   `json:"name,omitzero"`
	Role Field[Role]     `json:"role,omitzero"`
	Tags Field[[]string] `json:"tags,omitzero"`
}

func TestField_UnmarshalTriState(t *testing.T) {
	var body draftBody
	if err := json.Unmarshal([]byte(`{"name":null,"role":"builder"}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !body.Name.IsClear() {
		t.Errorf("name: want Clear for explicit null")
	}
	if got, ok := body.Role.Get(); !ok || got != RoleBuilder {
		t.Errorf("role = (%q, %v), want (%q, true)", got, ok, RoleBuilder)
	}
	if !body.Tags.IsUnset() {
		t.Errorf("tags: want Unset for absent key")
	}
}

func TestField_MarshalOmitsUnset(t *testing.T) {
	body := draftBody{
		Name: Clear[string](),
		Tags: Set([]string{"a"}),
	}

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"name":null,"tags":["a"]}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

func TestField_ValueOfUnset(t *testing.T) {
	var f Field[string]
	if f.Value() != "" {
		t.Errorf("Value() on Unset = %q, want empty", f.Value())
	}
	if _, ok := f.Get(); ok {
		t.Error("Get() on Unset reported ok")
	}
}

func TestEnums_Valid(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"builder", true},
		{"designer", true},
		{"marketer", true},
		{"other", true},
		{"founder", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run("role "+tt.name, func(t *testing.T) {
			if got := Role(tt.name).Valid(); got != tt.ok {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.name, got, tt.ok)
			}
		})
	}

	if !WorkItemHardware.Valid() || WorkItemType("video").Valid() {
		t.Error("WorkItemType.Valid() mismatch")
	}
	if !LinkDead.Valid() || LinkStatus("pending").Valid() {
		t.Error("LinkStatus.Valid() mismatch")
	}
}

func TestProfile_SyncImageURL(t *testing.T) {
	p := &Profile{
		ImageURL: "https://stale.example/old.png",
		Photos: []Photo{
			{Key: "a", URL: "https://cdn.example/a.png"},
			{Key: "b", URL: "https://cdn.example/b.png"},
		},
	}

	p.SyncImageURL()
	if p.ImageURL != "https://cdn.example/a.png" {
		t.Errorf("ImageURL = %q, want first photo url", p.ImageURL)
	}

	p.Photos = nil
	p.SyncImageURL()
	if p.ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty with no photos", p.ImageURL)
	}
}

func TestProfilePatch_Apply(t *testing.T) {
	p := &Profile{
		Name:              "Ada",
		Bio:               "old bio",
		CurrentlyBuilding: "engine",
		Social:            &Social{Twitter: "ada"},
		ProductsWorkedOn:  []string{"x"},
		UpdatedAt:         1,
	}

	ProfilePatch{
		Bio:                 Set("new bio"),
		CurrentlyBuilding:   Clear[string](),
		Social:              Clear[Social](),
		ProductsWorkedOn:    Clear[[]string](),
		ProjectVideoURLs:    Set[[]string](nil),
		OnboardingCompleted: Set(true),
		UpdatedAt:           42,
	}.Apply(p)

	if p.Name != "Ada" {
		t.Errorf("Name = %q, unset field must be untouched", p.Name)
	}
	if p.Bio != "new bio" {
		t.Errorf("Bio = %q, want %q", p.Bio, "new bio")
	}
	if p.CurrentlyBuilding != "" {
		t.Errorf("CurrentlyBuilding = %q, want cleared", p.CurrentlyBuilding)
	}
	if p.Social != nil {
		t.Errorf("Social = %+v, want nil", p.Social)
	}
	if p.ProductsWorkedOn == nil || len(p.ProductsWorkedOn) != 0 {
		t.Errorf("ProductsWorkedOn = %#v, want empty non-nil", p.ProductsWorkedOn)
	}
	if p.ProjectVideoURLs == nil {
		t.Error("ProjectVideoURLs is nil, want empty list")
	}
	if !p.OnboardingCompleted {
		t.Error("OnboardingCompleted = false, want true")
	}
	if p.UpdatedAt != 42 {
		t.Errorf("UpdatedAt = %d, want 42", p.UpdatedAt)
	}
}
