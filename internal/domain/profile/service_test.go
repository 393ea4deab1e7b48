package profile

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProfileRepo struct {
	profiles map[string]*Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*Profile)}
}

func (r *fakeProfileRepo) UpsertProfile(ctx context.Context, profile *Profile) error {
	existing, ok := r.profiles[profile.ID]
	if !ok {
		copied := *profile
		r.profiles[profile.ID] = &copied
		return nil
	}
	if profile.Email != nil {
		existing.Email = profile.Email
	}
	if existing.DisplayName == nil {
		existing.DisplayName = profile.DisplayName
	}
	if existing.AvatarURL == nil {
		existing.AvatarURL = profile.AvatarURL
	}
	return nil
}

func (r *fakeProfileRepo) GetProfile(ctx context.Context, id string) (*Profile, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeProfileRepo) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	for _, profile := range r.profiles {
		if profile.Email != nil && *profile.Email == email {
			return profile, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (r *fakeProfileRepo) ListProfiles(ctx context.Context, ids []string) ([]Profile, error) {
	result := make([]Profile, 0, len(ids))
	for _, id := range ids {
		if profile, ok := r.profiles[id]; ok {
			result = append(result, *profile)
		}
	}
	return result, nil
}

func (r *fakeProfileRepo) UpdateProfile(ctx context.Context, id string, input UpdateInput) error {
	profile, ok := r.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	if input.DisplayName != nil {
		profile.DisplayName = input.DisplayName
	}
	if input.Theme != nil {
		profile.Theme = input.Theme
	}
	if input.Age != nil {
		profile.Age = input.Age
	}
	if input.ContactEmail != nil {
		profile.ContactEmail = input.ContactEmail
	}
	return nil
}

func (r *fakeProfileRepo) MarkProfileConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return false, ErrProfileNotFound
	}
	if profile.ConfirmedAt != nil {
		return false, nil
	}
	profile.ConfirmedAt = &at
	return true, nil
}

func strPtr(value string) *string {
	return &value
}

func TestEnsureProfileKeepsExistingDisplayName(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.EnsureProfile(ctx, "user-1", " Alex@Example.com ", "Alex", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.EnsureProfile(ctx, "user-1", "alex@new.example", "Someone Else", "https://cdn.example/a.png"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	profile := repo.profiles["user-1"]
	if profile.Name() != "Alex" {
		t.Fatalf("expected display name to stay Alex, got %q", profile.Name())
	}
	if profile.Email == nil || *profile.Email != "alex@new.example" {
		t.Fatalf("expected email refreshed, got %v", profile.Email)
	}
	if profile.AvatarURL == nil {
		t.Fatalf("expected avatar filled when unset")
	}
}

func TestEnsureProfileRequiresUserID(t *testing.T) {
	svc := NewService(newFakeProfileRepo())
	if err := svc.EnsureProfile(context.Background(), "", "a@example.com", "", ""); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	age := 200
	tests := []struct {
		name  string
		input UpdateInput
		want  error
	}{
		{name: "empty", input: UpdateInput{}, want: ErrNoFieldsToUpdate},
		{name: "bad theme", input: UpdateInput{Theme: strPtr("neon")}, want: ErrInvalidTheme},
		{name: "bad age", input: UpdateInput{Age: &age}, want: ErrInvalidAge},
		{name: "bad email", input: UpdateInput{ContactEmail: strPtr("Alex <alex@example.com>")}, want: ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeProfileRepo()
			repo.profiles["user-1"] = &Profile{ID: "user-1"}
			svc := NewService(repo)

			_, err := svc.UpdateProfile(context.Background(), "user-1", tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUpdateProfileNormalizes(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profiles["user-1"] = &Profile{ID: "user-1"}
	svc := NewService(repo)

	age := 29
	result, err := svc.UpdateProfile(context.Background(), "user-1", UpdateInput{
		DisplayName:  strPtr("  Sam  "),
		Theme:        strPtr("DARK"),
		Age:          &age,
		ContactEmail: strPtr(" Sam@Example.COM "),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Name() != "Sam" {
		t.Fatalf("expected trimmed display name, got %q", result.Name())
	}
	if result.Theme == nil || *result.Theme != ThemeDark {
		t.Fatalf("expected dark theme, got %v", result.Theme)
	}
	if result.ContactEmail == nil || *result.ContactEmail != "sam@example.com" {
		t.Fatalf("expected normalized contact email, got %v", result.ContactEmail)
	}
}

func TestUpdateProfileNotFound(t *testing.T) {
	svc := NewService(newFakeProfileRepo())
	_, err := svc.UpdateProfile(context.Background(), "missing", UpdateInput{Nickname: strPtr("x")})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
