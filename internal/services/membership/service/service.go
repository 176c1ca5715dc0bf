package service

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sangamam/matrimony/internal/domain/membership"
	"github.com/sangamam/matrimony/internal/services/membership/repository"
	"github.com/sangamam/matrimony/pkg/logger"
)

var (
	ErrNotFound    = errors.New("membership not found")
	ErrInvalidPlan = membership.ErrInvalidPlan
)

type MembershipService struct {
	repo   *repository.MembershipRepository
	cron   *cron.Cron
	logger logger.Logger
}

func NewMembershipService(repo *repository.MembershipRepository, log logger.Logger) *MembershipService {
	return &MembershipService{repo: repo, logger: log}
}

type SubscribeInput struct {
	ProfileID uint   `json:"profileId" binding:"required"`
	PlanName  string `json:"planName" binding:"required"`
	Months    int    `json:"months" binding:"required,min=1,max=36"`
}

// Subscribe starts a new membership window, retiring any active one.
func (s *MembershipService) Subscribe(ctx context.Context, in SubscribeInput) (*membership.Membership, error) {
	now := time.Now().UTC()
	end := now.AddDate(0, in.Months, 0)
	m := &membership.Membership{
		ProfileID: in.ProfileID,
		PlanName:  in.PlanName,
		StartDate: &now,
		EndDate:   &end,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.DeactivatePrevious(ctx, in.ProfileID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("membership started",
		"profile_id", in.ProfileID, "plan", in.PlanName, "ends", end)
	return m, nil
}

func (s *MembershipService) GetActive(ctx context.Context, profileID uint) (*membership.Membership, error) {
	m, err := s.repo.GetActive(ctx, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *MembershipService) History(ctx context.Context, profileID uint) ([]*membership.Membership, error) {
	return s.repo.History(ctx, profileID)
}

// ExpireOverdue is the sweep body; exported so it can run on demand.
func (s *MembershipService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired memberships", "count", n)
	}
	return n, nil
}

// StartExpirySweep schedules the periodic expiry job.
func (s *MembershipService) StartExpirySweep(schedule string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.ExpireOverdue(ctx); err != nil {
			s.logger.Error("membership expiry sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// StopExpirySweep halts the scheduler and waits for a running sweep.
func (s *MembershipService) StopExpirySweep() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
