package service

import (
	"context"
	"errors"
	"time"

	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/services/profile/repository"
	"github.com/sangamam/matrimony/pkg/logger"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrValidation = errors.New("invalid profile data")
)

// MatchInvalidator drops cached recommendation lists when profile data that
// feeds scoring changes.
type MatchInvalidator interface {
	Invalidate(ctx context.Context, userID uint)
}

type ProfileService struct {
	repo        *repository.ProfileRepository
	invalidator MatchInvalidator
	logger      logger.Logger
}

func NewProfileService(repo *repository.ProfileRepository, inv MatchInvalidator, log logger.Logger) *ProfileService {
	return &ProfileService{repo: repo, invalidator: inv, logger: log}
}

// CreateProfileInput is the registration payload for the core profile row.
type CreateProfileInput struct {
	Name          string     `json:"name" binding:"required"`
	Gender        string     `json:"gender" binding:"required"`
	BirthDate     *time.Time `json:"birthDate"`
	HeightCm      *int       `json:"heightCm"`
	Complexion    string     `json:"complexion"`
	Caste         string     `json:"caste"`
	SubCaste      string     `json:"subCaste"`
	Religion      string     `json:"religion"`
	MaritalStatus string     `json:"maritalStatus"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	Country       string     `json:"country"`
	AboutMe       string     `json:"aboutMe"`
	MobileNumber  string     `json:"mobileNumber"`
}

func (s *ProfileService) Create(ctx context.Context, in CreateProfileInput) (*profile.Profile, error) {
	switch in.Gender {
	case profile.GenderMale, profile.GenderFemale, profile.GenderOther:
	default:
		return nil, ErrValidation
	}

	now := time.Now().UTC()
	p := &profile.Profile{
		Name:          in.Name,
		Gender:        in.Gender,
		BirthDate:     in.BirthDate,
		HeightCm:      in.HeightCm,
		Complexion:    in.Complexion,
		Caste:         in.Caste,
		SubCaste:      in.SubCaste,
		Religion:      in.Religion,
		MaritalStatus: in.MaritalStatus,
		City:          in.City,
		State:         in.State,
		Country:       in.Country,
		AboutMe:       in.AboutMe,
		MobileNumber:  in.MobileNumber,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("profile created", "profile_id", p.ID, "serial", p.SerialNumber)
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, id uint) (*profile.Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *ProfileService) GetBySerial(ctx context.Context, serial string) (*profile.Profile, error) {
	p, err := s.repo.GetBySerial(ctx, serial)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *ProfileService) GetComplete(ctx context.Context, id uint) (*repository.CompleteProfile, error) {
	cp, err := s.repo.GetComplete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return cp, err
}

func (s *ProfileService) List(ctx context.Context, offset, limit int) ([]*profile.Profile, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *ProfileService) Update(ctx context.Context, userID uint, p *profile.Profile) error {
	err := s.repo.Update(ctx, p)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) Deactivate(ctx context.Context, userID, id uint) error {
	err := s.repo.Deactivate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) SaveAstrology(ctx context.Context, userID uint, d *profile.AstrologyDetails) error {
	if err := s.repo.UpsertAstrology(ctx, d); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) SaveFamily(ctx context.Context, userID uint, d *profile.FamilyDetails) error {
	if err := s.repo.UpsertFamily(ctx, d); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) SaveProfessional(ctx context.Context, userID uint, d *profile.ProfessionalDetails) error {
	if err := s.repo.UpsertProfessional(ctx, d); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) SavePreferences(ctx context.Context, userID uint, d *profile.PartnerPreferences) error {
	if d.AgeFrom != nil && d.AgeTo != nil && *d.AgeFrom > *d.AgeTo {
		return ErrValidation
	}
	if d.HeightFrom != nil && d.HeightTo != nil && *d.HeightFrom > *d.HeightTo {
		return ErrValidation
	}
	if err := s.repo.UpsertPreferences(ctx, d); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) invalidate(ctx context.Context, userID uint) {
	if s.invalidator != nil && userID != 0 {
		s.invalidator.Invalidate(ctx, userID)
	}
}
