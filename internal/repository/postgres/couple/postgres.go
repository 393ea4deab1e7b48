package couple

import (
	"context"
	"errors"

	coupledomain "cozy-dates-go/internal/domain/couple"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	uniqueViolation = "23505"

	inviteCodeConstraint  = "couples_invite_code_key"
	oneAcceptedConstraint = "profile_couples_one_accepted_idx"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(coupledomain.Repository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
	return translateError(err)
}

func (r *PostgresRepository) ListMembershipsByProfile(ctx context.Context, profileID string) ([]coupledomain.Membership, error) {
	var memberships []coupledomain.Membership
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at asc").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *PostgresRepository) ListMembershipsByCouple(ctx context.Context, coupleID string, status coupledomain.Status) ([]coupledomain.Membership, error) {
	var memberships []coupledomain.Membership
	if err := r.db.WithContext(ctx).
		Where("couple_id = ? AND status = ?", coupleID, status).
		Order("updated_at asc").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *PostgresRepository) GetMembership(ctx context.Context, profileID, coupleID string) (*coupledomain.Membership, error) {
	var membership coupledomain.Membership
	if err := r.db.WithContext(ctx).
		Where("profile_id = ? AND couple_id = ?", profileID, coupleID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, coupledomain.ErrMembershipNotFound
		}
		return nil, err
	}
	return &membership, nil
}

func (r *PostgresRepository) GetCoupleByID(ctx context.Context, coupleID string) (*coupledomain.Couple, error) {
	var couple coupledomain.Couple
	if err := r.db.WithContext(ctx).Where("id = ?", coupleID).First(&couple).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, coupledomain.ErrCoupleNotFound
		}
		return nil, err
	}
	return &couple, nil
}

func (r *PostgresRepository) GetCoupleByInviteCode(ctx context.Context, code string) (*coupledomain.Couple, error) {
	var couple coupledomain.Couple
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&couple).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, coupledomain.ErrInviteCodeNotFound
		}
		return nil, err
	}
	return &couple, nil
}

func (r *PostgresRepository) ListCouplesByIDs(ctx context.Context, ids []string) ([]coupledomain.Couple, error) {
	if len(ids) == 0 {
		return []coupledomain.Couple{}, nil
	}
	var couples []coupledomain.Couple
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&couples).Error; err != nil {
		return nil, err
	}
	return couples, nil
}

func (r *PostgresRepository) IsInviteCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&coupledomain.Couple{}).Where("invite_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CreateCouple(ctx context.Context, couple *coupledomain.Couple) error {
	return translateError(r.db.WithContext(ctx).Create(couple).Error)
}

func (r *PostgresRepository) UpsertMembership(ctx context.Context, membership *coupledomain.Membership) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}, {Name: "couple_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "role", "updated_at"}),
		}).
		Create(membership).Error
	return translateError(err)
}

func (r *PostgresRepository) UpdateCoupleName(ctx context.Context, coupleID, name string) error {
	result := r.db.WithContext(ctx).Model(&coupledomain.Couple{}).Where("id = ?", coupleID).Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return coupledomain.ErrCoupleNotFound
	}
	return nil
}

// translateError maps unique violations of the pairing constraints onto domain conflicts.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case inviteCodeConstraint:
		return coupledomain.ErrInviteCodeTaken
	case oneAcceptedConstraint:
		return coupledomain.ErrActiveCoupleExists
	default:
		return err
	}
}
