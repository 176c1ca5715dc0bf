package media

import (
	"time"

	"github.com/google/uuid"
)

// FileKind is the broad storage category of an uploaded asset.
type FileKind string

const (
	FileKindImage    FileKind = "image"
	FileKindDocument FileKind = "document"
)

// ProcessingStatus is the lifecycle state of a stored file.
type ProcessingStatus string

const (
	StatusPending     ProcessingStatus = "pending"
	StatusQuarantined ProcessingStatus = "quarantined"
	StatusScanning    ProcessingStatus = "scanning"
	StatusReady       ProcessingStatus = "ready"
	StatusRejected    ProcessingStatus = "rejected"
)

// SlotKind names the attachment point an upload is destined for.
type SlotKind string

const (
	SlotPhoto       SlotKind = "photo"
	SlotCertificate SlotKind = "certificate"
	SlotHoroscope   SlotKind = "horoscope"
)

// OnDuplicate selects how the pipeline treats a checksum hit against an
// already-stored file. Photos return the existing file as a success;
// certificates and horoscopes reject the upload outright.
type OnDuplicate int

const (
	OnDuplicateReturnExisting OnDuplicate = iota
	OnDuplicateReject
)

// StoredFile is a row in the files table. Slot references on the profile's
// family/astrology records point at these rows but do not own them.
type StoredFile struct {
	ID           string           `json:"id" gorm:"primaryKey;size:36"`
	OriginalName string           `json:"originalName" gorm:"size:512;not null"`
	Kind         FileKind         `json:"kind" gorm:"size:16;not null;index:idx_files_kind_status"`
	StoragePath  string           `json:"-" gorm:"size:768;not null"`
	MimeType     string           `json:"mimeType" gorm:"size:128;not null"`
	SizeBytes    int64            `json:"sizeBytes" gorm:"not null"`
	Checksum     string           `json:"checksum" gorm:"size:64;uniqueIndex:idx_files_checksum"`
	Width        *int             `json:"width,omitempty"`
	Height       *int             `json:"height,omitempty"`
	ThumbnailPath string          `json:"-" gorm:"size:768"`
	Status       ProcessingStatus `json:"status" gorm:"size:16;not null;default:'pending';index:idx_files_kind_status"`
	VersionOf    *string          `json:"versionOf,omitempty" gorm:"size:36"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// NewStoredFile creates a file row in pending state.
func NewStoredFile(originalName string, kind FileKind, mimeType string, sizeBytes int64, checksum string) *StoredFile {
	now := time.Now().UTC()
	return &StoredFile{
		ID:           uuid.New().String(),
		OriginalName: originalName,
		Kind:         kind,
		MimeType:     mimeType,
		SizeBytes:    sizeBytes,
		Checksum:     checksum,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (f *StoredFile) IsImage() bool {
	return f.Kind == FileKindImage
}

// HasThumbnail reports whether a preview render exists for this file.
func (f *StoredFile) HasThumbnail() bool {
	return f.ThumbnailPath != ""
}
