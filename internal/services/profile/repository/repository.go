package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/pkg/database"
)

var ErrNotFound = errors.New("record not found")

// CompleteProfile is the aggregate read model: the core row plus every detail
// table that exists for it. Missing detail rows come back nil.
type CompleteProfile struct {
	Profile      *profile.Profile             `json:"profile"`
	Astrology    *profile.AstrologyDetails    `json:"astrology,omitempty"`
	Family       *profile.FamilyDetails       `json:"family,omitempty"`
	Professional *profile.ProfessionalDetails `json:"professional,omitempty"`
	Preferences  *profile.PartnerPreferences  `json:"preferences,omitempty"`
}

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts the profile and stamps its serial number from the generated
// id inside one transaction.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		p.SerialNumber = fmt.Sprintf("SM%05d", p.ID)
		return tx.Model(p).Update("serial_number", p.SerialNumber).Error
	})
}

func (r *ProfileRepository) Get(ctx context.Context, id uint) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *ProfileRepository) GetBySerial(ctx context.Context, serial string) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Where("serial_number = ?", serial).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&profile.Profile{}).Where("id = ?", p.ID).Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate hides the profile from the candidate pool without deleting data.
func (r *ProfileRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&profile.Profile{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) List(ctx context.Context, offset, limit int) ([]*profile.Profile, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&profile.Profile{}).
		Where("is_active = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []*profile.Profile
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&profiles).Error
	return profiles, total, err
}

// GetComplete assembles the aggregate read model.
func (r *ProfileRepository) GetComplete(ctx context.Context, id uint) (*CompleteProfile, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &CompleteProfile{Profile: p}

	var astro profile.AstrologyDetails
	if err := r.detail(ctx, id, &astro); err == nil {
		out.Astrology = &astro
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var fam profile.FamilyDetails
	if err := r.detail(ctx, id, &fam); err == nil {
		out.Family = &fam
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var prof profile.ProfessionalDetails
	if err := r.detail(ctx, id, &prof); err == nil {
		out.Professional = &prof
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var prefs profile.PartnerPreferences
	if err := r.detail(ctx, id, &prefs); err == nil {
		out.Preferences = &prefs
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return out, nil
}

func (r *ProfileRepository) detail(ctx context.Context, profileID uint, dest interface{}) error {
	return r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(dest).Error
}

func (r *ProfileRepository) UpsertAstrology(ctx context.Context, d *profile.AstrologyDetails) error {
	d.UpdatedAt = time.Now().UTC()
	return r.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		var existing profile.AstrologyDetails
		err := tx.Where("profile_id = ?", d.ProfileID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d.CreatedAt = time.Now().UTC()
			return tx.Create(d).Error
		}
		if err != nil {
			return err
		}
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
		// The horoscope slot belongs to the media pipeline, not this form.
		d.HoroscopeFileID = existing.HoroscopeFileID
		return tx.Save(d).Error
	})
}

func (r *ProfileRepository) UpsertFamily(ctx context.Context, d *profile.FamilyDetails) error {
	d.UpdatedAt = time.Now().UTC()
	return r.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		var existing profile.FamilyDetails
		err := tx.Where("profile_id = ?", d.ProfileID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d.CreatedAt = time.Now().UTC()
			return tx.Create(d).Error
		}
		if err != nil {
			return err
		}
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
		// File slots are owned by the media pipeline.
		d.PhotoFileID1 = existing.PhotoFileID1
		d.PhotoFileID2 = existing.PhotoFileID2
		d.CommunityFileID = existing.CommunityFileID
		return tx.Save(d).Error
	})
}

func (r *ProfileRepository) UpsertProfessional(ctx context.Context, d *profile.ProfessionalDetails) error {
	d.UpdatedAt = time.Now().UTC()
	return r.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		var existing profile.ProfessionalDetails
		err := tx.Where("profile_id = ?", d.ProfileID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d.CreatedAt = time.Now().UTC()
			return tx.Create(d).Error
		}
		if err != nil {
			return err
		}
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
		return tx.Save(d).Error
	})
}

func (r *ProfileRepository) UpsertPreferences(ctx context.Context, d *profile.PartnerPreferences) error {
	d.UpdatedAt = time.Now().UTC()
	return r.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		var existing profile.PartnerPreferences
		err := tx.Where("profile_id = ?", d.ProfileID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d.CreatedAt = time.Now().UTC()
			return tx.Create(d).Error
		}
		if err != nil {
			return err
		}
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
		return tx.Save(d).Error
	})
}
