package couple

import (
	"time"

	profiledomain "cozy-dates-go/internal/domain/profile"
)

type Status string

const (
	StatusAccepted Status = "accepted"
	StatusPending  Status = "pending"
	StatusDeclined Status = "declined"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// PairingState is derived from a profile's memberships, never stored.
type PairingState string

const (
	StateUnpaired PairingState = "unpaired"
	StatePaired   PairingState = "paired"
)

type Couple struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Name       *string   `gorm:"type:text"`
	InviteCode *string   `gorm:"size:16;uniqueIndex:couples_invite_code_key"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Couple) TableName() string { return "couples" }

type Membership struct {
	ProfileID string    `gorm:"type:uuid;primaryKey"`
	CoupleID  string    `gorm:"type:uuid;primaryKey"`
	Status    Status    `gorm:"type:text;not null"`
	Role      *Role     `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Membership) TableName() string { return "profile_couples" }

func (m Membership) IsAccepted() bool {
	return m.Status == StatusAccepted
}

// Result is what every membership action hands back to the caller.
type Result struct {
	Couple *Couple
	Status Status
	Role   *Role
}

type Invitation struct {
	Couple    Couple
	InvitedAt time.Time
}

type Member struct {
	ProfileID string
	Name      string
	AvatarURL *string
	Role      *Role
	JoinedAt  time.Time
}

// Overview is the snapshot a client reloads to render its couple view.
type Overview struct {
	Profile    *profiledomain.Profile
	State      PairingState
	Membership *Membership
	Couple     *Couple
	Members    []Member
}

func rolePtr(role Role) *Role {
	return &role
}
