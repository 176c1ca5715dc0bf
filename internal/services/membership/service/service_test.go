package service

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

	"github.com/sangamam/matrimony/internal/domain/membership"
	"github.com/sangamam/matrimony/internal/services/membership/repository"
	"github.com/sangamam/matrimony/pkg/database"
	"github.com/sangamam/matrimony/pkg/logger"
)

func setupService(t *testing.T) (*MembershipService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	db := &database.DB{DB: gdb}
	require.NoError(t, db.Migrate(&membership.Membership{}))

	return NewMembershipService(repository.NewMembershipRepository(db), logger.NewNop()), gdb
}

func TestSubscribeRetiresPrevious(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, SubscribeInput{ProfileID: 1, PlanName: membership.PlanSilver, Months: 6})
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := svc.Subscribe(ctx, SubscribeInput{ProfileID: 1, PlanName: membership.PlanGold, Months: 12})
	require.NoError(t, err)

	active, err := svc.GetActive(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, membership.PlanGold, active.PlanName)

	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSubscribeRejectsUnknownPlan(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Subscribe(context.Background(), SubscribeInput{ProfileID: 1, PlanName: "Diamond", Months: 6})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestGetActiveMissing(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetActive(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpireOverdue(t *testing.T) {
	svc, gdb := setupService(t)
	ctx := context.Background()

	past := time.Now().UTC().AddDate(0, -1, 0)
	start := past.AddDate(0, -6, 0)
	require.NoError(t, gdb.Create(&membership.Membership{
		ProfileID: 1, PlanName: membership.PlanSilver,
		StartDate: &start, EndDate: &past, IsActive: true,
	}).Error)

	future := time.Now().UTC().AddDate(0, 6, 0)
	require.NoError(t, gdb.Create(&membership.Membership{
		ProfileID: 2, PlanName: membership.PlanGold,
		StartDate: &past, EndDate: &future, IsActive: true,
	}).Error)

	n, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.GetActive(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	stillActive, err := svc.GetActive(ctx, 2)
	require.NoError(t, err)
	assert.True(t, stillActive.IsActive)

	// Sweep is idempotent.
	n, err = svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
