package profile

import (
	"context"
	"time"
)

type Repository interface {
	UpsertProfile(ctx context.Context, profile *Profile) error
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*Profile, error)
	ListProfiles(ctx context.Context, ids []string) ([]Profile, error)
	UpdateProfile(ctx context.Context, id string, input UpdateInput) error
	// MarkProfileConfirmed sets confirmed_at only when it is still null.
	MarkProfileConfirmed(ctx context.Context, id string, at time.Time) (bool, error)
}
