package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sangamam/matrimony/pkg/config"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Manager signs and validates the API's HS256 session tokens.
type Manager struct {
	secret []byte
	issuer string
	expiry time.Duration
}

type Claims struct {
	jwt.RegisteredClaims
	UserID    uint   `json:"userId"`
	ProfileID uint   `json:"profileId"`
	Mobile    string `json:"mobile"`
}

func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		expiry: time.Duration(cfg.ExpiryHours) * time.Hour,
	}
}

func (m *Manager) Generate(userID, profileID uint, mobile string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			ID:        uuid.New().String(),
		},
		UserID:    userID,
		ProfileID: profileID,
		Mobile:    mobile,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
