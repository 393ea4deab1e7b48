package couple

import (
	"context"
	"time"

	profiledomain "cozy-dates-go/internal/domain/profile"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListMembershipsByProfile(ctx context.Context, profileID string) ([]Membership, error)
	ListMembershipsByCouple(ctx context.Context, coupleID string, status Status) ([]Membership, error)
	GetMembership(ctx context.Context, profileID, coupleID string) (*Membership, error)
	GetCoupleByID(ctx context.Context, coupleID string) (*Couple, error)
	GetCoupleByInviteCode(ctx context.Context, code string) (*Couple, error)
	ListCouplesByIDs(ctx context.Context, ids []string) ([]Couple, error)
	IsInviteCodeTaken(ctx context.Context, code string) (bool, error)
	CreateCouple(ctx context.Context, couple *Couple) error
	// UpsertMembership inserts or updates the row keyed on (profile, couple).
	UpsertMembership(ctx context.Context, membership *Membership) error
	UpdateCoupleName(ctx context.Context, coupleID, name string) error
}

// Profiles is the slice of the profile store the membership workflow reads.
type Profiles interface {
	GetProfile(ctx context.Context, id string) (*profiledomain.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*profiledomain.Profile, error)
	ListProfiles(ctx context.Context, ids []string) ([]profiledomain.Profile, error)
	MarkProfileConfirmed(ctx context.Context, id string, at time.Time) (bool, error)
}
