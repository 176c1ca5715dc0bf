package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sangamam/matrimony/internal/domain/match"
	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/domain/user"
	"github.com/sangamam/matrimony/pkg/database"
)

var ErrNotFound = errors.New("record not found")

// Subject is the requesting user's side of a recommendation query.
type Subject struct {
	UserID      uint
	Profile     *profile.Profile
	Preferences *profile.PartnerPreferences
}

type MatchRepository struct {
	db *database.DB
}

func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// GetSubject loads the requesting user's profile and preference row. A missing
// preference row is not an error; scoring treats it as no preferences.
func (r *MatchRepository) GetSubject(ctx context.Context, userID uint) (*Subject, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var p profile.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", u.ProfileID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	subject := &Subject{UserID: userID, Profile: &p}

	var prefs profile.PartnerPreferences
	err := r.db.WithContext(ctx).Where("profile_id = ?", p.ID).First(&prefs).Error
	switch {
	case err == nil:
		subject.Preferences = &prefs
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no preferences recorded yet
	default:
		return nil, err
	}

	return subject, nil
}

// candidateRow is the flat scan target for the pool query. Joined columns are
// pointers because the side tables are optional.
type candidateRow struct {
	ProfileID    uint
	UserID       uint
	SerialNumber string
	Name         string
	BirthDate    *time.Time
	HeightCm     *int
	Gender       string
	City         string
	State        string
	Country      string
	AboutMe      string
	Education    *string
	Occupation   *string
	AnnualIncome *string
	Star         *string
	Rasi         *string
	PhotoFileID1 *string
	PhotoFileID2 *string
}

// CandidatePool returns every active profile of the given gender except the
// subject's own, flattened across the detail tables. Scoring and ordering
// happen in memory; the pool for a community site stays small enough.
func (r *MatchRepository) CandidatePool(ctx context.Context, excludeProfileID uint, gender string) ([]match.Candidate, error) {
	var rows []candidateRow
	err := r.db.WithContext(ctx).
		Table("profiles").
		Select(`profiles.id AS profile_id, users.id AS user_id,
			profiles.serial_number, profiles.name, profiles.birth_date,
			profiles.height_cm, profiles.gender, profiles.city, profiles.state,
			profiles.country, profiles.about_me,
			professional_details.education, professional_details.occupation,
			professional_details.annual_income,
			astrology_details.star, astrology_details.rasi,
			family_details.photo_file_id1, family_details.photo_file_id2`).
		Joins("JOIN users ON users.profile_id = profiles.id").
		Joins("LEFT JOIN professional_details ON professional_details.profile_id = profiles.id").
		Joins("LEFT JOIN astrology_details ON astrology_details.profile_id = profiles.id").
		Joins("LEFT JOIN family_details ON family_details.profile_id = profiles.id").
		Where("profiles.gender = ? AND profiles.is_active = ? AND profiles.id <> ?",
			gender, true, excludeProfileID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	candidates := make([]match.Candidate, 0, len(rows))
	for _, row := range rows {
		c := match.Candidate{
			ProfileID:    row.ProfileID,
			UserID:       row.UserID,
			SerialNumber: row.SerialNumber,
			Name:         row.Name,
			HeightCm:     row.HeightCm,
			Gender:       row.Gender,
			City:         row.City,
			State:        row.State,
			Country:      row.Country,
			AboutMe:      row.AboutMe,
			Education:    deref(row.Education),
			Occupation:   deref(row.Occupation),
			AnnualIncome: deref(row.AnnualIncome),
			Star:         deref(row.Star),
			Rasi:         deref(row.Rasi),
			PhotoFileID1: row.PhotoFileID1,
			PhotoFileID2: row.PhotoFileID2,
		}
		if row.BirthDate != nil {
			p := profile.Profile{BirthDate: row.BirthDate}
			c.Age = p.Age(now)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
