package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sangamam/matrimony/internal/domain/membership"
	"github.com/sangamam/matrimony/pkg/database"
)

var ErrNotFound = errors.New("membership not found")

type MembershipRepository struct {
	db *database.DB
}

func NewMembershipRepository(db *database.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m *membership.Membership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// GetActive returns the profile's current active membership, if any.
func (r *MembershipRepository) GetActive(ctx context.Context, profileID uint) (*membership.Membership, error) {
	var m membership.Membership
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND is_active = ?", profileID, true).
		Order("id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *MembershipRepository) History(ctx context.Context, profileID uint) ([]*membership.Membership, error) {
	var rows []*membership.Membership
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// DeactivatePrevious retires any active membership before a new one starts.
func (r *MembershipRepository) DeactivatePrevious(ctx context.Context, profileID uint) error {
	return r.db.WithContext(ctx).
		Model(&membership.Membership{}).
		Where("profile_id = ? AND is_active = ?", profileID, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()}).Error
}

// ExpireOverdue flips every active membership whose window has passed. Returns
// how many rows were expired.
func (r *MembershipRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&membership.Membership{}).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, now).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	return res.RowsAffected, res.Error
}
