package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/domain/user"
	"github.com/sangamam/matrimony/pkg/database"
)

func setupRepo(t *testing.T) (*MatchRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	db := &database.DB{DB: gdb}
	require.NoError(t, db.Migrate(
		&user.User{},
		&profile.Profile{},
		&profile.AstrologyDetails{},
		&profile.FamilyDetails{},
		&profile.ProfessionalDetails{},
		&profile.PartnerPreferences{},
	))

	return NewMatchRepository(db), gdb
}

func seedPerson(t *testing.T, gdb *gorm.DB, name, gender string, age int, active bool) (*user.User, *profile.Profile) {
	t.Helper()

	birth := time.Now().UTC().AddDate(-age, 0, -1)
	p := &profile.Profile{
		Name:      name,
		Gender:    gender,
		BirthDate: &birth,
		City:      "Chennai",
		IsActive:  active,
	}
	require.NoError(t, gdb.Create(p).Error)
	p.SerialNumber = fmt.Sprintf("SM%05d", p.ID)
	require.NoError(t, gdb.Model(p).Update("serial_number", p.SerialNumber).Error)

	u := &user.User{
		CountryCode: "+91",
		Mobile:      fmt.Sprintf("9%09d", p.ID),
		Name:        name,
		Password:    "x",
		ProfileID:   p.ID,
		Gender:      gender,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u, p
}

func TestGetSubject(t *testing.T) {
	repo, gdb := setupRepo(t)
	ctx := context.Background()

	u, p := seedPerson(t, gdb, "Subject", profile.GenderMale, 30, true)
	require.NoError(t, gdb.Create(&profile.PartnerPreferences{
		ProfileID: p.ID,
		AgeFrom:   intp(25),
		AgeTo:     intp(30),
	}).Error)

	subject, err := repo.GetSubject(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, subject.Profile.ID)
	require.NotNil(t, subject.Preferences)
	assert.Equal(t, 25, *subject.Preferences.AgeFrom)
}

func TestGetSubjectWithoutPreferences(t *testing.T) {
	repo, gdb := setupRepo(t)

	u, _ := seedPerson(t, gdb, "Subject", profile.GenderMale, 30, true)

	subject, err := repo.GetSubject(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, subject.Preferences)
}

func TestGetSubjectUnknownUser(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.GetSubject(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCandidatePoolFilters(t *testing.T) {
	repo, gdb := setupRepo(t)
	ctx := context.Background()

	_, subject := seedPerson(t, gdb, "Subject", profile.GenderMale, 30, true)
	_, eligible := seedPerson(t, gdb, "Eligible", profile.GenderFemale, 27, true)
	seedPerson(t, gdb, "Inactive", profile.GenderFemale, 26, false)
	seedPerson(t, gdb, "SameGender", profile.GenderMale, 28, true)

	pool, err := repo.CandidatePool(ctx, subject.ID, profile.GenderFemale)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, eligible.ID, pool[0].ProfileID)
	assert.Equal(t, 27, pool[0].Age)
}

func TestCandidatePoolFlattensDetails(t *testing.T) {
	repo, gdb := setupRepo(t)
	ctx := context.Background()

	_, subject := seedPerson(t, gdb, "Subject", profile.GenderFemale, 28, true)
	_, cand := seedPerson(t, gdb, "Candidate", profile.GenderMale, 31, true)

	fileID := "photo-file-1"
	require.NoError(t, gdb.Create(&profile.ProfessionalDetails{
		ProfileID:    cand.ID,
		Education:    "M.Sc",
		Occupation:   "Teacher",
		AnnualIncome: "5-10L",
	}).Error)
	require.NoError(t, gdb.Create(&profile.AstrologyDetails{
		ProfileID: cand.ID,
		Star:      "Rohini",
		Rasi:      "Rishabam",
	}).Error)
	require.NoError(t, gdb.Create(&profile.FamilyDetails{
		ProfileID:    cand.ID,
		PhotoFileID1: &fileID,
	}).Error)

	pool, err := repo.CandidatePool(ctx, subject.ID, profile.GenderMale)
	require.NoError(t, err)
	require.Len(t, pool, 1)

	c := pool[0]
	assert.Equal(t, "M.Sc", c.Education)
	assert.Equal(t, "Teacher", c.Occupation)
	assert.Equal(t, "5-10L", c.AnnualIncome)
	assert.Equal(t, "Rohini", c.Star)
	assert.Equal(t, "Rishabam", c.Rasi)
	require.NotNil(t, c.PhotoFileID1)
	assert.Equal(t, fileID, *c.PhotoFileID1)
	assert.Nil(t, c.PhotoFileID2)
}

func TestCandidatePoolMissingDetailsAreEmpty(t *testing.T) {
	repo, gdb := setupRepo(t)

	_, subject := seedPerson(t, gdb, "Subject", profile.GenderFemale, 28, true)
	seedPerson(t, gdb, "Bare", profile.GenderMale, 31, true)

	pool, err := repo.CandidatePool(context.Background(), subject.ID, profile.GenderMale)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Empty(t, pool[0].Education)
	assert.Empty(t, pool[0].Star)
	assert.Nil(t, pool[0].PhotoFileID1)
}

func intp(v int) *int { return &v }
