package profile

import "time"

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

type Profile struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	Email        *string    `gorm:"type:text"`
	DisplayName  *string    `gorm:"type:text"`
	AvatarURL    *string    `gorm:"type:text"`
	Theme        *string    `gorm:"type:text"`
	FirstName    *string    `gorm:"type:text"`
	LastName     *string    `gorm:"type:text"`
	Nickname     *string    `gorm:"type:text"`
	Age          *int       `gorm:"type:integer"`
	ContactEmail *string    `gorm:"type:text"`
	ConfirmedAt  *time.Time `gorm:"type:timestamptz"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string { return "profiles" }

// Name returns the best human-readable name for the profile, or "".
func (p *Profile) Name() string {
	if p == nil {
		return ""
	}
	for _, value := range []*string{p.DisplayName, p.Nickname, p.FirstName} {
		if value != nil && *value != "" {
			return *value
		}
	}
	return ""
}

// UpdateInput carries a partial profile update; nil fields are left untouched.
type UpdateInput struct {
	DisplayName  *string
	AvatarURL    *string
	Theme        *string
	FirstName    *string
	LastName     *string
	Nickname     *string
	Age          *int
	ContactEmail *string
}

func (in UpdateInput) empty() bool {
	return in.DisplayName == nil && in.AvatarURL == nil && in.Theme == nil &&
		in.FirstName == nil && in.LastName == nil && in.Nickname == nil &&
		in.Age == nil && in.ContactEmail == nil
}
