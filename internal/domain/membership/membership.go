package membership

import (
	"errors"
	"time"
)

var ErrInvalidPlan = errors.New("invalid membership plan")

// Plan names accepted by the platform.
const (
	PlanSilver   = "Silver"
	PlanGold     = "Gold"
	PlanPlatinum = "Platinum"
)

var validPlans = map[string]bool{
	PlanSilver:   true,
	PlanGold:     true,
	PlanPlatinum: true,
}

type Membership struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	ProfileID uint       `json:"profileId" gorm:"not null;index"`
	PlanName  string     `json:"planName" gorm:"size:50"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	IsActive  bool       `json:"isActive" gorm:"default:true"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (m *Membership) Validate() error {
	if m.PlanName != "" && !validPlans[m.PlanName] {
		return ErrInvalidPlan
	}
	return nil
}

// IsExpired reports whether the membership window has passed.
func (m *Membership) IsExpired(now time.Time) bool {
	return m.EndDate != nil && now.After(*m.EndDate)
}
