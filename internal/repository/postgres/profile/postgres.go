package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	profiledomain "cozy-dates-go/internal/domain/profile"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertProfile always refreshes the account email; display name and avatar
// are only filled while still empty.
func (r *PostgresRepository) UpsertProfile(ctx context.Context, profile *profiledomain.Profile) error {
	updates := map[string]interface{}{
		"email":        gorm.Expr("COALESCE(EXCLUDED.email, profiles.email)"),
		"display_name": gorm.Expr("COALESCE(profiles.display_name, EXCLUDED.display_name)"),
		"avatar_url":   gorm.Expr("COALESCE(profiles.avatar_url, EXCLUDED.avatar_url)"),
		"updated_at":   time.Now().UTC(),
	}

	// Unchanged rows are left alone so per-request ensures stay read-only.
	changed := clause.Expr{
		SQL: "(EXCLUDED.email IS NOT NULL AND profiles.email IS DISTINCT FROM EXCLUDED.email) OR " +
			"(profiles.display_name IS NULL AND EXCLUDED.display_name IS NOT NULL) OR " +
			"(profiles.avatar_url IS NULL AND EXCLUDED.avatar_url IS NOT NULL)",
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(updates),
			Where:     clause.Where{Exprs: []clause.Expression{changed}},
		}).
		Create(profile).Error
}

func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (*profiledomain.Profile, error) {
	var profile profiledomain.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profiledomain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresRepository) GetProfileByEmail(ctx context.Context, email string) (*profiledomain.Profile, error) {
	email = strings.ToLower(email)

	var profile profiledomain.Profile
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? OR LOWER(contact_email) = ?", email, email).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "LOWER(email) = ? DESC",
			Vars:               []interface{}{email},
			WithoutParentheses: true,
		}}).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profiledomain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresRepository) ListProfiles(ctx context.Context, ids []string) ([]profiledomain.Profile, error) {
	if len(ids) == 0 {
		return []profiledomain.Profile{}, nil
	}
	var profiles []profiledomain.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, input profiledomain.UpdateInput) error {
	updates := map[string]interface{}{}
	setText := func(column string, value *string) {
		if value == nil {
			return
		}
		if *value == "" {
			updates[column] = nil
			return
		}
		updates[column] = *value
	}
	setText("display_name", input.DisplayName)
	setText("avatar_url", input.AvatarURL)
	setText("theme", input.Theme)
	setText("first_name", input.FirstName)
	setText("last_name", input.LastName)
	setText("nickname", input.Nickname)
	setText("contact_email", input.ContactEmail)
	if input.Age != nil {
		updates["age"] = *input.Age
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&profiledomain.Profile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return profiledomain.ErrProfileNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkProfileConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&profiledomain.Profile{}).
		Where("id = ? AND confirmed_at IS NULL", id).
		Update("confirmed_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	if _, err := r.GetProfile(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
