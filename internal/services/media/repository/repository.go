package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sangamam/matrimony/internal/domain/media"
	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/pkg/database"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateChecksum is returned when the unique content-hash index
	// rejects a file row. Two concurrent uploads of identical bytes race to
	// this constraint; the loser takes the duplicate-detected path.
	ErrDuplicateChecksum = errors.New("file with identical checksum already stored")
	// ErrSlotOccupied is returned when a single-valued slot already holds a file.
	ErrSlotOccupied = errors.New("slot already occupied")
	// ErrNoFreeSlot is returned when both photo slots hold files.
	ErrNoFreeSlot = errors.New("no free photo slot")
)

// Statistics summarizes the files table for the admin dashboard.
type Statistics struct {
	TotalFiles     int64                            `json:"totalFiles"`
	TotalSizeBytes int64                            `json:"totalSizeBytes"`
	ByKind         map[media.FileKind]int64         `json:"filesByKind"`
	ByStatus       map[media.ProcessingStatus]int64 `json:"filesByStatus"`
}

type MediaRepository struct {
	db *database.DB
}

func NewMediaRepository(db *database.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// ---- file rows ----

// CreateFile inserts a file row, translating a unique-constraint violation on
// the checksum index into ErrDuplicateChecksum.
func (r *MediaRepository) CreateFile(ctx context.Context, f *media.StoredFile) error {
	err := r.db.WithContext(ctx).Create(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateChecksum
	}
	return err
}

func (r *MediaRepository) GetFile(ctx context.Context, id string) (*media.StoredFile, error) {
	var f media.StoredFile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &f, err
}

// FindReadyDuplicate returns a ready file with the given checksum, or nil.
// Absence is not an error.
func (r *MediaRepository) FindReadyDuplicate(ctx context.Context, checksum string) (*media.StoredFile, error) {
	var f media.StoredFile
	err := r.db.WithContext(ctx).
		Where("checksum = ? AND status = ?", checksum, media.StatusReady).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *MediaRepository) DeleteFile(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&media.StoredFile{}).Error
}

func (r *MediaRepository) UpdateFileStatus(ctx context.Context, id string, status media.ProcessingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&media.StoredFile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MediaRepository) ListFilesByKind(ctx context.Context, kind media.FileKind, offset, limit int) ([]*media.StoredFile, error) {
	var files []*media.StoredFile
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&files).Error
	return files, err
}

func (r *MediaRepository) ListFilesByStatus(ctx context.Context, status media.ProcessingStatus, offset, limit int) ([]*media.StoredFile, error) {
	var files []*media.StoredFile
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&files).Error
	return files, err
}

func (r *MediaRepository) FileStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		ByKind:   make(map[media.FileKind]int64),
		ByStatus: make(map[media.ProcessingStatus]int64),
	}

	if err := r.db.WithContext(ctx).Model(&media.StoredFile{}).Count(&stats.TotalFiles).Error; err != nil {
		return nil, err
	}

	var size struct{ Total int64 }
	if err := r.db.WithContext(ctx).Model(&media.StoredFile{}).
		Select("COALESCE(SUM(size_bytes), 0) AS total").
		Scan(&size).Error; err != nil {
		return nil, err
	}
	stats.TotalSizeBytes = size.Total

	var kindRows []struct {
		Kind  media.FileKind
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&media.StoredFile{}).
		Select("kind, COUNT(*) AS count").Group("kind").
		Scan(&kindRows).Error; err != nil {
		return nil, err
	}
	for _, row := range kindRows {
		stats.ByKind[row.Kind] = row.Count
	}

	var statusRows []struct {
		Status media.ProcessingStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&media.StoredFile{}).
		Select("status, COUNT(*) AS count").Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		stats.ByStatus[row.Status] = row.Count
	}

	return stats, nil
}

// ---- profile resolution ----

func (r *MediaRepository) GetProfile(ctx context.Context, id uint) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &p, err
}
