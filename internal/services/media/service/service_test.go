package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sangamam/matrimony/internal/domain/media"
	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/services/media/convert"
	"github.com/sangamam/matrimony/internal/services/media/repository"
	"github.com/sangamam/matrimony/internal/services/media/scanner"
	"github.com/sangamam/matrimony/internal/services/media/storage"
	"github.com/sangamam/matrimony/pkg/config"
	"github.com/sangamam/matrimony/pkg/database"
	"github.com/sangamam/matrimony/pkg/logger"
)

// stubScanner returns a fixed verdict.
type stubScanner struct {
	result scanner.Result
	err    error
}

func (s *stubScanner) Scan(ctx context.Context, path string) (scanner.Result, error) {
	return s.result, s.err
}

type fixture struct {
	svc     *Service
	repo    *repository.MediaRepository
	db      *database.DB
	cfg     config.MediaConfig
	profile *profile.Profile
	scan    *stubScanner
}

func setup(t *testing.T) *fixture {
	t.Helper()

	// A named shared in-memory database keeps every pooled connection on the
	// same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	db := &database.DB{DB: gdb}
	require.NoError(t, db.Migrate(
		&profile.Profile{},
		&profile.AstrologyDetails{},
		&profile.FamilyDetails{},
		&media.StoredFile{},
	))

	root := t.TempDir()
	cfg := config.MediaConfig{
		QuarantineDir:     filepath.Join(root, "quarantine"),
		PhotosDir:         filepath.Join(root, "photos"),
		CertificatesDir:   filepath.Join(root, "certificates"),
		HoroscopesDir:     filepath.Join(root, "horoscopes"),
		ThumbnailsDir:     filepath.Join(root, "thumbnails"),
		MaxPhotoBytes:     1 << 20,
		MaxDocumentBytes:  1 << 20,
		PhotoMimeTypes:    []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		DocumentMimeTypes: []string{"application/pdf", "image/jpeg", "image/png"},
		ScannerTimeout:    time.Second,
		PhotoQuality:      85,
		ThumbnailSize:     150,
	}

	scan := &stubScanner{result: scanner.Clean}
	repo := repository.NewMediaRepository(db)
	svc := New(repo, storage.NewLocalStore(), scan,
		convert.New(cfg.PhotoQuality, cfg.ThumbnailSize), cfg, logger.NewNop())

	p := &profile.Profile{
		SerialNumber: "SM00042",
		Name:         "Test Profile",
		Gender:       profile.GenderFemale,
		IsActive:     true,
	}
	require.NoError(t, gdb.Create(p).Error)

	return &fixture{svc: svc, repo: repo, db: db, cfg: cfg, profile: p, scan: scan}
}

// pngUpload builds a distinct image payload; the seed changes its bytes so
// each call has a fresh checksum.
func pngUpload(t *testing.T, seed uint8) Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: seed, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return Upload{
		Filename:    fmt.Sprintf("photo-%d.png", seed),
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}
}

func (f *fixture) family(t *testing.T) *profile.FamilyDetails {
	t.Helper()
	var fam profile.FamilyDetails
	require.NoError(t, f.db.DB.Where("profile_id = ?", f.profile.ID).First(&fam).Error)
	return &fam
}

func (f *fixture) astrology(t *testing.T) *profile.AstrologyDetails {
	t.Helper()
	var astro profile.AstrologyDetails
	require.NoError(t, f.db.DB.Where("profile_id = ?", f.profile.ID).First(&astro).Error)
	return &astro
}

func quarantineEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadPhotoHappyPath(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)
	assert.Equal(t, 1, res.Slot)
	assert.True(t, res.Thumbnail)
	assert.False(t, res.Duplicate)

	file, err := f.repo.GetFile(ctx, res.FileID)
	require.NoError(t, err)
	assert.Equal(t, media.StatusReady, file.Status)
	assert.Equal(t, media.FileKindImage, file.Kind)
	assert.Equal(t, "image/jpeg", file.MimeType)
	require.NotNil(t, file.Width)
	assert.Equal(t, 64, *file.Width)

	expectedPath := filepath.Join(f.cfg.PhotosDir, "SM00042_photo_1.jpg")
	assert.Equal(t, expectedPath, file.StoragePath)
	_, statErr := os.Stat(expectedPath)
	assert.NoError(t, statErr)
	_, statErr = os.Stat(file.ThumbnailPath)
	assert.NoError(t, statErr)

	fam := f.family(t)
	require.NotNil(t, fam.PhotoFileID1)
	assert.Equal(t, res.FileID, *fam.PhotoFileID1)
	assert.Nil(t, fam.PhotoFileID2)

	quarantineEmpty(t, f.cfg.QuarantineDir)
}

func TestUploadPhotoFillsSecondSlotThenRejects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res1, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)
	assert.Equal(t, 1, res1.Slot)

	res2, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 2))
	require.Nil(t, merr)
	assert.Equal(t, 2, res2.Slot)

	_, merr = f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 3))
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeNoFreeSlot, merr.Code)
}

func TestUploadPhotoDuplicateReturnsExisting(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	up := pngUpload(t, 7)
	res1, merr := f.svc.UploadPhoto(ctx, f.profile.ID, up)
	require.Nil(t, merr)

	res2, merr := f.svc.UploadPhoto(ctx, f.profile.ID, up)
	require.Nil(t, merr)
	assert.True(t, res2.Duplicate)
	assert.Equal(t, res1.FileID, res2.FileID)

	// The duplicate did not consume the second slot.
	fam := f.family(t)
	assert.Nil(t, fam.PhotoFileID2)
}

func TestUploadPhotoSizeExceeded(t *testing.T) {
	f := setup(t)
	up := pngUpload(t, 1)
	up.Data = append(up.Data, make([]byte, f.cfg.MaxPhotoBytes)...)

	_, merr := f.svc.UploadPhoto(context.Background(), f.profile.ID, up)
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeSizeExceeded, merr.Code)
}

func TestUploadPhotoInvalidContentType(t *testing.T) {
	f := setup(t)
	up := pngUpload(t, 1)
	up.ContentType = "application/zip"

	_, merr := f.svc.UploadPhoto(context.Background(), f.profile.ID, up)
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeInvalidFileType, merr.Code)

	// The whitelist check runs before anything touches disk.
	quarantineEmpty(t, f.cfg.QuarantineDir)
}

func TestUploadPhotoContentMismatch(t *testing.T) {
	f := setup(t)
	up := Upload{
		Filename:    "fake.png",
		ContentType: "image/png",
		Data:        []byte("this is not image data"),
	}

	_, merr := f.svc.UploadPhoto(context.Background(), f.profile.ID, up)
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeInvalidFileType, merr.Code)
}

func TestUploadPhotoUnknownProfile(t *testing.T) {
	f := setup(t)

	_, merr := f.svc.UploadPhoto(context.Background(), 9999, pngUpload(t, 1))
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeNotFound, merr.Code)
}

func TestUploadPhotoInfected(t *testing.T) {
	f := setup(t)
	f.scan.result = scanner.Infected

	_, merr := f.svc.UploadPhoto(context.Background(), f.profile.ID, pngUpload(t, 1))
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeVirusFound, merr.Code)

	// Nothing persisted.
	files, err := f.repo.ListFilesByKind(context.Background(), media.FileKindImage, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, files)
	quarantineEmpty(t, f.cfg.QuarantineDir)
}

func TestUploadPhotoScannerUnavailableProceeds(t *testing.T) {
	f := setup(t)
	f.scan.result = scanner.Unavailable

	res, merr := f.svc.UploadPhoto(context.Background(), f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)
	assert.NotEmpty(t, res.FileID)
}

func TestUploadPhotoScanFailure(t *testing.T) {
	f := setup(t)
	f.scan.err = scanner.ErrScanFailed

	_, merr := f.svc.UploadPhoto(context.Background(), f.profile.ID, pngUpload(t, 1))
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeProcessingError, merr.Code)
	quarantineEmpty(t, f.cfg.QuarantineDir)
}

func TestUploadCertificateConvertsToPDF(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, merr := f.svc.UploadCertificate(ctx, f.profile.ID, pngUpload(t, 5))
	require.Nil(t, merr)
	assert.False(t, res.Thumbnail)

	file, err := f.repo.GetFile(ctx, res.FileID)
	require.NoError(t, err)
	assert.Equal(t, media.FileKindDocument, file.Kind)
	assert.Equal(t, "application/pdf", file.MimeType)
	assert.Equal(t, filepath.Join(f.cfg.CertificatesDir, "SM00042_certificate.pdf"), file.StoragePath)

	data, err := os.ReadFile(file.StoragePath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	fam := f.family(t)
	require.NotNil(t, fam.CommunityFileID)
	assert.Equal(t, res.FileID, *fam.CommunityFileID)
}

func TestUploadCertificateSlotOccupied(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, merr := f.svc.UploadCertificate(ctx, f.profile.ID, pngUpload(t, 5))
	require.Nil(t, merr)

	_, merr = f.svc.UploadCertificate(ctx, f.profile.ID, pngUpload(t, 6))
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeSlotOccupied, merr.Code)
}

func TestUploadCertificateDuplicateRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	up := pngUpload(t, 5)
	res, merr := f.svc.UploadCertificate(ctx, f.profile.ID, up)
	require.Nil(t, merr)

	// Free the slot but keep the ready file row; identical bytes stay blocked.
	_, err := f.repo.ReleaseCertificate(ctx, res.FileID)
	require.NoError(t, err)

	_, merr = f.svc.UploadCertificate(ctx, f.profile.ID, up)
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeDuplicateDetected, merr.Code)
}

func TestUploadHoroscopeAttachesToAstrology(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, merr := f.svc.UploadHoroscope(ctx, f.profile.ID, pngUpload(t, 9))
	require.Nil(t, merr)

	astro := f.astrology(t)
	require.NotNil(t, astro.HoroscopeFileID)
	assert.Equal(t, res.FileID, *astro.HoroscopeFileID)

	file, err := f.repo.GetFile(ctx, res.FileID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.cfg.HoroscopesDir, "SM00042_horoscope.pdf"), file.StoragePath)
}

// failingSlotRepo forces the slot write to fail after the file is stored.
type failingSlotRepo struct {
	*repository.MediaRepository
}

func (r *failingSlotRepo) AssignPhotoSlot(ctx context.Context, profileID uint, fileID string, slot int) error {
	return errors.New("write conflict")
}

func TestUploadPhotoSlotFailureRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	svc := New(&failingSlotRepo{f.repo}, storage.NewLocalStore(), f.scan,
		convert.New(f.cfg.PhotoQuality, f.cfg.ThumbnailSize), f.cfg, logger.NewNop())

	_, merr := svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeProcessingError, merr.Code)

	// Row and blobs are gone; a retry starts clean.
	files, err := f.repo.ListFilesByKind(ctx, media.FileKindImage, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, statErr := os.Stat(filepath.Join(f.cfg.PhotosDir, "SM00042_photo_1.jpg"))
	assert.True(t, os.IsNotExist(statErr))

	res, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)
	assert.Equal(t, 1, res.Slot)
}

func TestDeleteFileReleasesSlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)

	require.Nil(t, f.svc.DeleteFile(ctx, res.FileID))

	fam := f.family(t)
	assert.Nil(t, fam.PhotoFileID1)

	_, statErr := os.Stat(filepath.Join(f.cfg.PhotosDir, "SM00042_photo_1.jpg"))
	assert.True(t, os.IsNotExist(statErr))

	_, err := f.repo.GetFile(ctx, res.FileID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// The freed slot is reusable.
	res2, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 2))
	require.Nil(t, merr)
	assert.Equal(t, 1, res2.Slot)
}

func TestDeleteFileWithClearedSlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)

	// Clear the slot reference out of band, then delete.
	released, err := f.repo.ReleasePhotoSlot(ctx, res.FileID)
	require.NoError(t, err)
	assert.True(t, released)

	require.Nil(t, f.svc.DeleteFile(ctx, res.FileID))

	_, err = f.repo.GetFile(ctx, res.FileID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, statErr := os.Stat(filepath.Join(f.cfg.PhotosDir, "SM00042_photo_1.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDeleteCertificateReleasesSlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, merr := f.svc.UploadCertificate(ctx, f.profile.ID, pngUpload(t, 5))
	require.Nil(t, merr)

	require.Nil(t, f.svc.DeleteFile(ctx, res.FileID))
	fam := f.family(t)
	assert.Nil(t, fam.CommunityFileID)
}

func TestDownloadAndThumbnail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)

	dl, merr := f.svc.DownloadFile(ctx, res.FileID)
	require.Nil(t, merr)
	assert.NotEmpty(t, dl.Data)
	assert.Equal(t, "image/jpeg", dl.File.MimeType)

	thumb, merr := f.svc.DownloadThumbnail(ctx, res.FileID)
	require.Nil(t, merr)
	assert.NotEmpty(t, thumb.Data)

	_, merr = f.svc.DownloadFile(ctx, "missing-id")
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeNotFound, merr.Code)
}

func TestRejectFile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)

	require.Nil(t, f.svc.RejectFile(ctx, res.FileID))
	file, err := f.repo.GetFile(ctx, res.FileID)
	require.NoError(t, err)
	assert.Equal(t, media.StatusRejected, file.Status)

	// A rejected file is no longer downloadable.
	_, merr = f.svc.DownloadFile(ctx, res.FileID)
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeNotFound, merr.Code)

	// Approval restores it.
	require.Nil(t, f.svc.ApproveFile(ctx, res.FileID))
	_, merr = f.svc.DownloadFile(ctx, res.FileID)
	require.Nil(t, merr)

	merr = f.svc.RejectFile(ctx, "missing-id")
	require.NotNil(t, merr)
	assert.Equal(t, media.CodeNotFound, merr.Code)
}

func TestStatistics(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, merr := f.svc.UploadPhoto(ctx, f.profile.ID, pngUpload(t, 1))
	require.Nil(t, merr)
	_, merr = f.svc.UploadCertificate(ctx, f.profile.ID, pngUpload(t, 5))
	require.Nil(t, merr)

	stats, merr := f.svc.Statistics(ctx)
	require.Nil(t, merr)
	assert.Equal(t, int64(2), stats.TotalFiles)
	assert.Positive(t, stats.TotalSizeBytes)
	assert.Equal(t, int64(1), stats.ByKind[media.FileKindImage])
	assert.Equal(t, int64(1), stats.ByKind[media.FileKindDocument])
	assert.Equal(t, int64(2), stats.ByStatus[media.StatusReady])
}
