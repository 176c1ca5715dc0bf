package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sangamam/matrimony/internal/domain/media"
	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/services/media/convert"
	"github.com/sangamam/matrimony/internal/services/media/repository"
	"github.com/sangamam/matrimony/internal/services/media/scanner"
	"github.com/sangamam/matrimony/internal/services/media/storage"
	"github.com/sangamam/matrimony/pkg/config"
	"github.com/sangamam/matrimony/pkg/logger"
	"github.com/sangamam/matrimony/pkg/metrics"
)

// Repository is the persistence surface the orchestrator needs. The concrete
// implementation is repository.MediaRepository; tests substitute wrappers to
// force failures at specific pipeline steps.
type Repository interface {
	GetProfile(ctx context.Context, id uint) (*profile.Profile, error)

	CreateFile(ctx context.Context, f *media.StoredFile) error
	GetFile(ctx context.Context, id string) (*media.StoredFile, error)
	FindReadyDuplicate(ctx context.Context, checksum string) (*media.StoredFile, error)
	DeleteFile(ctx context.Context, id string) error
	UpdateFileStatus(ctx context.Context, id string, status media.ProcessingStatus) error
	ListFilesByKind(ctx context.Context, kind media.FileKind, offset, limit int) ([]*media.StoredFile, error)
	ListFilesByStatus(ctx context.Context, status media.ProcessingStatus, offset, limit int) ([]*media.StoredFile, error)
	FileStatistics(ctx context.Context) (*repository.Statistics, error)

	FreePhotoSlot(ctx context.Context, profileID uint) (int, error)
	AssignPhotoSlot(ctx context.Context, profileID uint, fileID string, slot int) error
	ReleasePhotoSlot(ctx context.Context, fileID string) (bool, error)
	CertificateSlot(ctx context.Context, profileID uint) (*string, error)
	AssignCertificate(ctx context.Context, profileID uint, fileID string) error
	ReleaseCertificate(ctx context.Context, fileID string) (bool, error)
	HoroscopeSlot(ctx context.Context, profileID uint) (*string, error)
	AssignHoroscope(ctx context.Context, profileID uint, fileID string) error
	ReleaseHoroscope(ctx context.Context, fileID string) (bool, error)
}

// Upload is an incoming multipart payload, fully read into memory. Size
// ceilings are enforced before any disk write.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result reports a completed upload. Duplicate is set when the returned file
// is an already-stored copy of the same bytes rather than a new row.
type Result struct {
	FileID    string `json:"file_id"`
	ProfileID uint   `json:"profile_id"`
	Slot      int    `json:"slot,omitempty"`
	Thumbnail bool   `json:"thumbnail"`
	Duplicate bool   `json:"duplicate"`
}

// Download bundles file bytes with their metadata row.
type Download struct {
	File *media.StoredFile
	Data []byte
}

type Service struct {
	repo      Repository
	blobs     storage.BlobStore
	scanner   scanner.Scanner
	converter convert.Converter
	cfg       config.MediaConfig
	logger    logger.Logger
}

func New(repo Repository, blobs storage.BlobStore, scan scanner.Scanner, conv convert.Converter, cfg config.MediaConfig, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		blobs:     blobs,
		scanner:   scan,
		converter: conv,
		cfg:       cfg,
		logger:    log,
	}
}

// UploadPhoto runs the full pipeline for a profile photo and attaches the
// result to the first free photo slot.
func (s *Service) UploadPhoto(ctx context.Context, profileID uint, up Upload) (*Result, *media.Error) {
	return s.upload(ctx, profileID, up, media.SlotPhoto)
}

// UploadCertificate attaches a community certificate to the profile's single
// certificate slot. Re-uploading identical bytes is rejected.
func (s *Service) UploadCertificate(ctx context.Context, profileID uint, up Upload) (*Result, *media.Error) {
	return s.upload(ctx, profileID, up, media.SlotCertificate)
}

// UploadHoroscope attaches a horoscope document to the profile's astrology
// record.
func (s *Service) UploadHoroscope(ctx context.Context, profileID uint, up Upload) (*Result, *media.Error) {
	return s.upload(ctx, profileID, up, media.SlotHoroscope)
}

// uploadSpec is the per-slot policy table.
type uploadSpec struct {
	kind        media.FileKind
	maxBytes    int64
	mimeTypes   []string
	onDuplicate media.OnDuplicate
}

func (s *Service) specFor(slot media.SlotKind) uploadSpec {
	switch slot {
	case media.SlotPhoto:
		return uploadSpec{
			kind:        media.FileKindImage,
			maxBytes:    s.cfg.MaxPhotoBytes,
			mimeTypes:   s.cfg.PhotoMimeTypes,
			onDuplicate: media.OnDuplicateReturnExisting,
		}
	default:
		return uploadSpec{
			kind:        media.FileKindDocument,
			maxBytes:    s.cfg.MaxDocumentBytes,
			mimeTypes:   s.cfg.DocumentMimeTypes,
			onDuplicate: media.OnDuplicateReject,
		}
	}
}

func (s *Service) upload(ctx context.Context, profileID uint, up Upload, slot media.SlotKind) (res *Result, merr *media.Error) {
	started := time.Now()
	spec := s.specFor(slot)
	defer func() {
		metrics.UploadDuration.WithLabelValues(string(slot)).Observe(time.Since(started).Seconds())
		outcome := "success"
		if merr != nil {
			outcome = strings.ToLower(string(merr.Code))
		}
		metrics.UploadsTotal.WithLabelValues(string(slot), outcome).Inc()
	}()

	prof, err := s.repo.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, media.Errorf(media.CodeNotFound, "profile %d not found", profileID)
		}
		return nil, s.internal("load profile", err)
	}

	if int64(len(up.Data)) > spec.maxBytes {
		return nil, media.Errorf(media.CodeSizeExceeded,
			"file is %d bytes, limit is %d", len(up.Data), spec.maxBytes)
	}
	if len(up.Data) == 0 {
		return nil, media.NewError(media.CodeInvalidFileType, "empty upload")
	}

	mimeType := normalizeMime(up.ContentType)
	if !mimeAllowed(mimeType, spec.mimeTypes) {
		return nil, media.Errorf(media.CodeInvalidFileType,
			"content type %q is not accepted for %s uploads", up.ContentType, slot)
	}

	sum := sha256.Sum256(up.Data)
	checksum := hex.EncodeToString(sum[:])

	if existing, err := s.repo.FindReadyDuplicate(ctx, checksum); err != nil {
		return nil, s.internal("duplicate lookup", err)
	} else if existing != nil {
		return s.handleDuplicate(existing, profileID, spec)
	}

	// Slot availability is checked before the expensive steps so a full
	// profile fails fast. The slot is only written after the file is durable.
	slotNo, merr := s.reserveCheck(ctx, profileID, slot)
	if merr != nil {
		return nil, merr
	}

	quarantinePath := filepath.Join(s.cfg.QuarantineDir, uuid.New().String()+filepath.Ext(up.Filename))
	if err := s.blobs.Write(ctx, quarantinePath, up.Data); err != nil {
		return nil, s.internal("quarantine write", err)
	}
	// The quarantine copy never outlives the request.
	defer func() {
		if err := s.blobs.Delete(ctx, quarantinePath); err != nil {
			s.logger.Warn("failed to remove quarantined file", "path", quarantinePath, "error", err)
		}
	}()

	verdict, err := s.scanner.Scan(ctx, quarantinePath)
	if err != nil {
		return nil, media.NewError(media.CodeProcessingError, "virus scan could not complete")
	}
	switch verdict {
	case scanner.Infected:
		s.logger.Warn("infected upload discarded",
			"profile_id", profileID, "filename", up.Filename, "checksum", checksum)
		return nil, media.NewError(media.CodeVirusFound, "file failed the virus scan")
	case scanner.Unavailable:
		s.logger.Warn("virus scanner unavailable, accepting file unscanned",
			"profile_id", profileID, "filename", up.Filename)
	}

	stored, thumbData, merr := s.convert(up, mimeType, spec)
	if merr != nil {
		return nil, merr
	}

	file := media.NewStoredFile(up.Filename, spec.kind, stored.mimeType, int64(len(stored.data)), checksum)
	file.Width = stored.width
	file.Height = stored.height
	file.StoragePath = s.permanentPath(prof, slot, slotNo, stored.ext)

	if err := s.blobs.Write(ctx, file.StoragePath, stored.data); err != nil {
		return nil, s.internal("store file", err)
	}
	written := []string{file.StoragePath}

	if thumbData != nil {
		file.ThumbnailPath = filepath.Join(s.cfg.ThumbnailsDir,
			fmt.Sprintf("%s_photo_%d_thumb.jpg", prof.SerialNumber, slotNo))
		if err := s.blobs.Write(ctx, file.ThumbnailPath, thumbData); err != nil {
			s.removeBlobs(ctx, written)
			return nil, s.internal("store thumbnail", err)
		}
		written = append(written, file.ThumbnailPath)
	}

	if err := s.repo.CreateFile(ctx, file); err != nil {
		s.removeBlobs(ctx, written)
		if errors.Is(err, repository.ErrDuplicateChecksum) {
			// Lost the insert race to a concurrent identical upload.
			if existing, derr := s.repo.FindReadyDuplicate(ctx, checksum); derr == nil && existing != nil {
				return s.handleDuplicate(existing, profileID, spec)
			}
			return nil, media.NewError(media.CodeDuplicateDetected, "an identical file already exists")
		}
		return nil, s.internal("create file record", err)
	}

	if merr := s.assignSlot(ctx, profileID, file.ID, slot, slotNo); merr != nil {
		// Roll back everything so a retry starts from a clean state.
		s.removeBlobs(ctx, written)
		if err := s.repo.DeleteFile(ctx, file.ID); err != nil {
			s.logger.Error("rollback failed to delete file record", "file_id", file.ID, "error", err)
		}
		return nil, merr
	}

	if err := s.repo.UpdateFileStatus(ctx, file.ID, media.StatusReady); err != nil {
		s.logger.Error("failed to mark file ready", "file_id", file.ID, "error", err)
	}

	s.logger.Info("upload complete",
		"profile_id", profileID, "slot", slot, "file_id", file.ID, "bytes", file.SizeBytes)

	return &Result{
		FileID:    file.ID,
		ProfileID: profileID,
		Slot:      slotNo,
		Thumbnail: thumbData != nil,
	}, nil
}

// converted carries the normalized bytes plus metadata out of the conversion
// step.
type converted struct {
	data     []byte
	mimeType string
	ext      string
	width    *int
	height   *int
}

func (s *Service) convert(up Upload, mimeType string, spec uploadSpec) (*converted, []byte, *media.Error) {
	if spec.kind == media.FileKindImage {
		img, err := s.converter.NormalizePhoto(up.Data)
		if err != nil {
			if errors.Is(err, convert.ErrNotAnImage) {
				return nil, nil, media.NewError(media.CodeInvalidFileType,
					"file content is not a decodable image")
			}
			return nil, nil, s.internal("normalize photo", err)
		}
		thumb, err := s.converter.Thumbnail(img.Data)
		if err != nil {
			return nil, nil, s.internal("render thumbnail", err)
		}
		w, h := img.Width, img.Height
		return &converted{
			data:     img.Data,
			mimeType: "image/jpeg",
			ext:      ".jpg",
			width:    &w,
			height:   &h,
		}, thumb, nil
	}

	data, err := s.converter.ToDocument(up.Data, mimeType)
	if err != nil {
		if errors.Is(err, convert.ErrInvalidPDF) || errors.Is(err, convert.ErrUnsupported) {
			return nil, nil, media.NewError(media.CodeInvalidFileType,
				"file content is not a valid document")
		}
		return nil, nil, s.internal("convert document", err)
	}
	return &converted{data: data, mimeType: "application/pdf", ext: ".pdf"}, nil, nil
}

// reserveCheck verifies slot availability up front. For photos it also picks
// the slot number the permanent filename is derived from.
func (s *Service) reserveCheck(ctx context.Context, profileID uint, slot media.SlotKind) (int, *media.Error) {
	switch slot {
	case media.SlotPhoto:
		n, err := s.repo.FreePhotoSlot(ctx, profileID)
		if errors.Is(err, repository.ErrNoFreeSlot) {
			return 0, media.NewError(media.CodeNoFreeSlot, "both photo slots are occupied")
		}
		if err != nil {
			return 0, s.internal("find photo slot", err)
		}
		return n, nil
	case media.SlotCertificate:
		current, err := s.repo.CertificateSlot(ctx, profileID)
		if err != nil {
			return 0, s.internal("check certificate slot", err)
		}
		if current != nil {
			return 0, media.NewError(media.CodeSlotOccupied,
				"a community certificate is already attached, delete it first")
		}
		return 0, nil
	default:
		current, err := s.repo.HoroscopeSlot(ctx, profileID)
		if err != nil {
			return 0, s.internal("check horoscope slot", err)
		}
		if current != nil {
			return 0, media.NewError(media.CodeSlotOccupied,
				"a horoscope is already attached, delete it first")
		}
		return 0, nil
	}
}

func (s *Service) assignSlot(ctx context.Context, profileID uint, fileID string, slot media.SlotKind, slotNo int) *media.Error {
	var err error
	switch slot {
	case media.SlotPhoto:
		err = s.repo.AssignPhotoSlot(ctx, profileID, fileID, slotNo)
		if errors.Is(err, repository.ErrNoFreeSlot) {
			return media.NewError(media.CodeNoFreeSlot, "both photo slots are occupied")
		}
	case media.SlotCertificate:
		err = s.repo.AssignCertificate(ctx, profileID, fileID)
	default:
		err = s.repo.AssignHoroscope(ctx, profileID, fileID)
	}
	if errors.Is(err, repository.ErrSlotOccupied) {
		return media.NewError(media.CodeSlotOccupied, "the slot was filled by a concurrent upload")
	}
	if err != nil {
		return s.internal("assign slot", err)
	}
	return nil
}

func (s *Service) handleDuplicate(existing *media.StoredFile, profileID uint, spec uploadSpec) (*Result, *media.Error) {
	if spec.onDuplicate == media.OnDuplicateReturnExisting {
		return &Result{
			FileID:    existing.ID,
			ProfileID: profileID,
			Thumbnail: existing.HasThumbnail(),
			Duplicate: true,
		}, nil
	}
	return nil, media.NewError(media.CodeDuplicateDetected,
		"an identical file has already been uploaded")
}

func (s *Service) permanentPath(prof *profile.Profile, slot media.SlotKind, slotNo int, ext string) string {
	switch slot {
	case media.SlotPhoto:
		return filepath.Join(s.cfg.PhotosDir,
			fmt.Sprintf("%s_photo_%d%s", prof.SerialNumber, slotNo, ext))
	case media.SlotCertificate:
		return filepath.Join(s.cfg.CertificatesDir,
			fmt.Sprintf("%s_certificate%s", prof.SerialNumber, ext))
	default:
		return filepath.Join(s.cfg.HoroscopesDir,
			fmt.Sprintf("%s_horoscope%s", prof.SerialNumber, ext))
	}
}

func (s *Service) removeBlobs(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.blobs.Delete(ctx, p); err != nil {
			s.logger.Error("cleanup failed to remove blob", "path", p, "error", err)
		}
	}
}

func (s *Service) internal(step string, err error) *media.Error {
	s.logger.Error("upload pipeline failure", "step", step, "error", err)
	return media.NewError(media.CodeProcessingError, "the upload could not be processed")
}

// ---- retrieval and administration ----

func (s *Service) GetFile(ctx context.Context, id string) (*media.StoredFile, *media.Error) {
	f, err := s.repo.GetFile(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, media.Errorf(media.CodeNotFound, "file %s not found", id)
	}
	if err != nil {
		return nil, s.internal("load file", err)
	}
	return f, nil
}

// DownloadFile returns the stored bytes for a ready file.
func (s *Service) DownloadFile(ctx context.Context, id string) (*Download, *media.Error) {
	f, merr := s.GetFile(ctx, id)
	if merr != nil {
		return nil, merr
	}
	// Only fully processed files are served.
	if f.Status != media.StatusReady {
		return nil, media.Errorf(media.CodeNotFound, "file %s is not available", id)
	}
	data, err := s.blobs.Read(ctx, f.StoragePath)
	if err != nil {
		return nil, s.internal("read blob", err)
	}
	return &Download{File: f, Data: data}, nil
}

// DownloadThumbnail returns the preview render for an image file.
func (s *Service) DownloadThumbnail(ctx context.Context, id string) (*Download, *media.Error) {
	f, merr := s.GetFile(ctx, id)
	if merr != nil {
		return nil, merr
	}
	if !f.HasThumbnail() {
		return nil, media.Errorf(media.CodeNotFound, "file %s has no thumbnail", id)
	}
	data, err := s.blobs.Read(ctx, f.ThumbnailPath)
	if err != nil {
		return nil, s.internal("read thumbnail", err)
	}
	return &Download{File: f, Data: data}, nil
}

// DeleteFile removes the blobs, releases any slot that references the file,
// then drops the row. Slot release is best effort; an orphaned reference is
// repaired on the next upload attempt.
func (s *Service) DeleteFile(ctx context.Context, id string) *media.Error {
	f, merr := s.GetFile(ctx, id)
	if merr != nil {
		return merr
	}

	paths := []string{f.StoragePath}
	if f.HasThumbnail() {
		paths = append(paths, f.ThumbnailPath)
	}
	s.removeBlobs(ctx, paths)

	if f.IsImage() {
		if _, err := s.repo.ReleasePhotoSlot(ctx, id); err != nil {
			s.logger.Warn("failed to release photo slot", "file_id", id, "error", err)
		}
	} else {
		if _, err := s.repo.ReleaseCertificate(ctx, id); err != nil {
			s.logger.Warn("failed to release certificate slot", "file_id", id, "error", err)
		}
		if _, err := s.repo.ReleaseHoroscope(ctx, id); err != nil {
			s.logger.Warn("failed to release horoscope slot", "file_id", id, "error", err)
		}
	}

	if err := s.repo.DeleteFile(ctx, id); err != nil {
		return s.internal("delete file record", err)
	}

	s.logger.Info("file deleted", "file_id", id, "kind", f.Kind)
	return nil
}

// RejectFile marks a file rejected without removing its row, keeping an audit
// trail for moderation.
func (s *Service) RejectFile(ctx context.Context, id string) *media.Error {
	if err := s.repo.UpdateFileStatus(ctx, id, media.StatusRejected); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return media.Errorf(media.CodeNotFound, "file %s not found", id)
		}
		return s.internal("reject file", err)
	}
	return nil
}

// ApproveFile restores a rejected or stuck file to the ready state.
func (s *Service) ApproveFile(ctx context.Context, id string) *media.Error {
	if err := s.repo.UpdateFileStatus(ctx, id, media.StatusReady); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return media.Errorf(media.CodeNotFound, "file %s not found", id)
		}
		return s.internal("approve file", err)
	}
	return nil
}

func (s *Service) ListFiles(ctx context.Context, kind media.FileKind, offset, limit int) ([]*media.StoredFile, *media.Error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	files, err := s.repo.ListFilesByKind(ctx, kind, offset, limit)
	if err != nil {
		return nil, s.internal("list files", err)
	}
	return files, nil
}

func (s *Service) ListFilesByStatus(ctx context.Context, status media.ProcessingStatus, offset, limit int) ([]*media.StoredFile, *media.Error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	files, err := s.repo.ListFilesByStatus(ctx, status, offset, limit)
	if err != nil {
		return nil, s.internal("list files", err)
	}
	return files, nil
}

func (s *Service) Statistics(ctx context.Context) (*repository.Statistics, *media.Error) {
	stats, err := s.repo.FileStatistics(ctx)
	if err != nil {
		return nil, s.internal("file statistics", err)
	}
	return stats, nil
}

// ---- helpers ----

func normalizeMime(contentType string) string {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func mimeAllowed(mimeType string, allowed []string) bool {
	for _, m := range allowed {
		if mimeType == m {
			return true
		}
	}
	return false
}
