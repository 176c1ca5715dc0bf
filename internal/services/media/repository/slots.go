package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sangamam/matrimony/internal/domain/profile"
)

// familyFor loads the family record, creating an empty one when the profile
// has none yet. Runs inside the caller's transaction when tx is non-nil.
func familyFor(tx *gorm.DB, profileID uint) (*profile.FamilyDetails, error) {
	var fam profile.FamilyDetails
	err := tx.Where("profile_id = ?", profileID).First(&fam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fam = profile.FamilyDetails{
			ProfileID: profileID,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&fam).Error; err != nil {
			return nil, err
		}
		return &fam, nil
	}
	if err != nil {
		return nil, err
	}
	return &fam, nil
}

func astrologyFor(tx *gorm.DB, profileID uint) (*profile.AstrologyDetails, error) {
	var astro profile.AstrologyDetails
	err := tx.Where("profile_id = ?", profileID).First(&astro).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		astro = profile.AstrologyDetails{
			ProfileID: profileID,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&astro).Error; err != nil {
			return nil, err
		}
		return &astro, nil
	}
	if err != nil {
		return nil, err
	}
	return &astro, nil
}

// FreePhotoSlot scans slot 1 then slot 2 and returns the first empty slot
// number. Both occupied yields ErrNoFreeSlot.
func (r *MediaRepository) FreePhotoSlot(ctx context.Context, profileID uint) (int, error) {
	fam, err := familyFor(r.db.WithContext(ctx), profileID)
	if err != nil {
		return 0, err
	}
	if fam.PhotoFileID1 == nil {
		return 1, nil
	}
	if fam.PhotoFileID2 == nil {
		return 2, nil
	}
	return 0, ErrNoFreeSlot
}

// AssignPhotoSlot records a file reference in the given photo slot. The slot
// must still be empty; losing a race to another upload surfaces ErrNoFreeSlot.
func (r *MediaRepository) AssignPhotoSlot(ctx context.Context, profileID uint, fileID string, slot int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		fam, err := familyFor(tx.WithContext(ctx), profileID)
		if err != nil {
			return err
		}
		switch slot {
		case 1:
			if fam.PhotoFileID1 != nil {
				return ErrNoFreeSlot
			}
			fam.PhotoFileID1 = &fileID
		case 2:
			if fam.PhotoFileID2 != nil {
				return ErrNoFreeSlot
			}
			fam.PhotoFileID2 = &fileID
		default:
			return fmt.Errorf("invalid photo slot %d", slot)
		}
		fam.UpdatedAt = time.Now().UTC()
		return tx.WithContext(ctx).Save(fam).Error
	})
}

// ReleasePhotoSlot clears whichever photo slot references the file. A no-match
// release is a benign no-op; the boolean reports whether anything was cleared.
func (r *MediaRepository) ReleasePhotoSlot(ctx context.Context, fileID string) (bool, error) {
	var fam profile.FamilyDetails
	err := r.db.WithContext(ctx).
		Where("photo_file_id1 = ? OR photo_file_id2 = ?", fileID, fileID).
		First(&fam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if fam.PhotoFileID1 != nil && *fam.PhotoFileID1 == fileID {
		updates["photo_file_id1"] = nil
	}
	if fam.PhotoFileID2 != nil && *fam.PhotoFileID2 == fileID {
		updates["photo_file_id2"] = nil
	}
	err = r.db.WithContext(ctx).Model(&fam).Updates(updates).Error
	return err == nil, err
}

// CertificateSlot returns the current community-certificate reference, nil
// when empty.
func (r *MediaRepository) CertificateSlot(ctx context.Context, profileID uint) (*string, error) {
	fam, err := familyFor(r.db.WithContext(ctx), profileID)
	if err != nil {
		return nil, err
	}
	return fam.CommunityFileID, nil
}

// AssignCertificate occupies the single community-certificate slot.
func (r *MediaRepository) AssignCertificate(ctx context.Context, profileID uint, fileID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		fam, err := familyFor(tx.WithContext(ctx), profileID)
		if err != nil {
			return err
		}
		if fam.CommunityFileID != nil {
			return ErrSlotOccupied
		}
		fam.CommunityFileID = &fileID
		fam.UpdatedAt = time.Now().UTC()
		return tx.WithContext(ctx).Save(fam).Error
	})
}

// ReleaseCertificate clears the certificate slot when it references the file.
func (r *MediaRepository) ReleaseCertificate(ctx context.Context, fileID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&profile.FamilyDetails{}).
		Where("community_file_id = ?", fileID).
		Updates(map[string]interface{}{"community_file_id": nil, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// HoroscopeSlot returns the current horoscope reference, nil when empty.
func (r *MediaRepository) HoroscopeSlot(ctx context.Context, profileID uint) (*string, error) {
	astro, err := astrologyFor(r.db.WithContext(ctx), profileID)
	if err != nil {
		return nil, err
	}
	return astro.HoroscopeFileID, nil
}

// AssignHoroscope occupies the single horoscope slot on the astrology record.
func (r *MediaRepository) AssignHoroscope(ctx context.Context, profileID uint, fileID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		astro, err := astrologyFor(tx.WithContext(ctx), profileID)
		if err != nil {
			return err
		}
		if astro.HoroscopeFileID != nil {
			return ErrSlotOccupied
		}
		astro.HoroscopeFileID = &fileID
		astro.UpdatedAt = time.Now().UTC()
		return tx.WithContext(ctx).Save(astro).Error
	})
}

// ReleaseHoroscope clears the horoscope slot when it references the file.
func (r *MediaRepository) ReleaseHoroscope(ctx context.Context, fileID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&profile.AstrologyDetails{}).
		Where("horoscope_file_id = ?", fileID).
		Updates(map[string]interface{}{"horoscope_file_id": nil, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}
