package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	CountryCode  string     `json:"countryCode" gorm:"size:5;not null"`
	Name         string     `json:"name" gorm:"size:100"`
	Mobile       string     `json:"mobile" gorm:"size:15;uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"size:255"`
	Password     string     `json:"-" gorm:"size:255;not null"`
	ProfileID    uint       `json:"profileId" gorm:"index"`
	Gender       string     `json:"gender" gorm:"size:10"`
	IsVerified   bool       `json:"isVerified" gorm:"default:false"`
	OTPCode      string     `json:"-" gorm:"size:6"`
	OTPCreatedAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewUser creates a user with a hashed password and a fresh OTP awaiting
// verification.
func NewUser(countryCode, mobile, name, password, gender string) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &User{
		CountryCode: countryCode,
		Mobile:      mobile,
		Name:        name,
		Password:    string(hashed),
		Gender:      gender,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.IssueOTP(); err != nil {
		return nil, err
	}
	return u, nil
}

// CheckPassword verifies the password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// SetPassword replaces the stored password hash.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// IssueOTP generates a six-digit one-time code and stamps its issue time.
func (u *User) IssueOTP() error {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u.OTPCode = fmt.Sprintf("%06d", n.Int64())
	u.OTPCreatedAt = &now
	return nil
}

// VerifyOTP checks the code and its freshness. A successful verification
// clears the stored code.
func (u *User) VerifyOTP(code string, ttl time.Duration) bool {
	if u.OTPCode == "" || u.OTPCreatedAt == nil {
		return false
	}
	if time.Since(*u.OTPCreatedAt) > ttl {
		return false
	}
	if u.OTPCode != code {
		return false
	}
	u.OTPCode = ""
	u.OTPCreatedAt = nil
	u.IsVerified = true
	return true
}
