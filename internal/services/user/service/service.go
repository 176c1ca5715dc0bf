package service

import (
	"context"
	"errors"
	"time"

	"github.com/sangamam/matrimony/internal/domain/user"
	"github.com/sangamam/matrimony/internal/services/user/repository"
	"github.com/sangamam/matrimony/internal/services/user/token"
	"github.com/sangamam/matrimony/pkg/config"
	"github.com/sangamam/matrimony/pkg/logger"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateMobile    = errors.New("mobile number already registered")
	ErrInvalidCredentials = errors.New("invalid mobile number or password")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
	ErrNotVerified        = errors.New("account is not verified")
)

// OTPSender delivers a one-time code to a mobile number. The default
// implementation only logs; an SMS gateway slots in behind this.
type OTPSender interface {
	Send(ctx context.Context, countryCode, mobile, code string) error
}

// LogOTPSender writes the code to the service log, which is how development
// and staging environments read their codes.
type LogOTPSender struct {
	Logger logger.Logger
}

func (s *LogOTPSender) Send(ctx context.Context, countryCode, mobile, code string) error {
	s.Logger.Info("otp issued", "mobile", countryCode+mobile, "code", code)
	return nil
}

type UserService struct {
	repo   *repository.UserRepository
	tokens *token.Manager
	sender OTPSender
	otpTTL time.Duration
	logger logger.Logger
}

func NewUserService(repo *repository.UserRepository, tokens *token.Manager, sender OTPSender, cfg config.AuthConfig, log logger.Logger) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
		sender: sender,
		otpTTL: time.Duration(cfg.OTPTTL) * time.Second,
		logger: log,
	}
}

type RegisterInput struct {
	CountryCode string `json:"countryCode" binding:"required"`
	Mobile      string `json:"mobile" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	Gender      string `json:"gender" binding:"required"`
}

// Register creates an unverified account and sends the first OTP.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	u, err := user.NewUser(in.CountryCode, in.Mobile, in.Name, in.Password, in.Gender)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateMobile
		}
		return nil, err
	}

	if err := s.sender.Send(ctx, u.CountryCode, u.Mobile, u.OTPCode); err != nil {
		s.logger.Error("otp delivery failed", "user_id", u.ID, "error", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "mobile", u.Mobile)
	return u, nil
}

// VerifyOTP marks the account verified when the code matches within its TTL.
func (s *UserService) VerifyOTP(ctx context.Context, mobile, code string) error {
	u, err := s.repo.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !u.VerifyOTP(code, s.otpTTL) {
		return ErrInvalidOTP
	}
	return s.repo.Update(ctx, u)
}

// ResendOTP issues a fresh code for an unverified account.
func (s *UserService) ResendOTP(ctx context.Context, mobile string) error {
	u, err := s.repo.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if u.IsVerified {
		return nil
	}

	if err := u.IssueOTP(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}
	return s.sender.Send(ctx, u.CountryCode, u.Mobile, u.OTPCode)
}

// Login authenticates a verified account and returns a signed session token.
func (s *UserService) Login(ctx context.Context, mobile, password string) (string, *user.User, error) {
	u, err := s.repo.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !u.CheckPassword(password) {
		return "", nil, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return "", nil, ErrNotVerified
	}

	tok, err := s.tokens.Generate(u.ID, u.ProfileID, u.Mobile)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return tok, u, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*user.User, error) {
	u, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

// LinkProfile attaches a newly created profile to the account.
func (s *UserService) LinkProfile(ctx context.Context, userID, profileID uint) error {
	err := s.repo.LinkProfile(ctx, userID, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ChangePassword verifies the current password before storing a new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !u.CheckPassword(current) {
		return ErrInvalidCredentials
	}
	if err := u.SetPassword(next); err != nil {
		return err
	}
	return s.repo.Update(ctx, u)
}
