package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamam/matrimony/internal/domain/match"
	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/services/match/repository"
	"github.com/sangamam/matrimony/pkg/cache"
	"github.com/sangamam/matrimony/pkg/logger"
)

// stubRepo serves a fixed subject and pool, counting pool queries so tests can
// observe cache hits.
type stubRepo struct {
	subject   *repository.Subject
	pool      []match.Candidate
	poolCalls int
}

func (r *stubRepo) GetSubject(ctx context.Context, userID uint) (*repository.Subject, error) {
	if r.subject == nil {
		return nil, repository.ErrNotFound
	}
	return r.subject, nil
}

func (r *stubRepo) CandidatePool(ctx context.Context, excludeProfileID uint, gender string) ([]match.Candidate, error) {
	r.poolCalls++
	return r.pool, nil
}

func intp(v int) *int { return &v }

func testCache(t *testing.T) cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewRedisCache(client, "match")
}

func testSubject() *repository.Subject {
	return &repository.Subject{
		UserID: 1,
		Profile: &profile.Profile{
			ID:     100,
			Gender: profile.GenderMale,
		},
		Preferences: &profile.PartnerPreferences{
			ProfileID: 100,
			AgeFrom:   intp(25),
			AgeTo:     intp(30),
		},
	}
}

func TestRecommendationsRankedAndPaginated(t *testing.T) {
	repo := &stubRepo{
		subject: testSubject(),
		pool: []match.Candidate{
			{ProfileID: 3, Age: 40},
			{ProfileID: 7, Age: 27},
			{ProfileID: 5, Age: 26},
			{ProfileID: 1, Age: 50},
		},
	}
	svc := NewMatchService(repo, testCache(t), logger.NewNop())
	ctx := context.Background()

	page, total, err := svc.Recommendations(ctx, 1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, uint(7), page[0].ProfileID)
	assert.Equal(t, uint(5), page[1].ProfileID)
	assert.Equal(t, match.MaxScore, page[0].Score)

	page, _, err = svc.Recommendations(ctx, 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint(3), page[0].ProfileID)
	assert.Equal(t, uint(1), page[1].ProfileID)
}

func TestRecommendationsCached(t *testing.T) {
	repo := &stubRepo{
		subject: testSubject(),
		pool:    []match.Candidate{{ProfileID: 2, Age: 27}},
	}
	svc := NewMatchService(repo, testCache(t), logger.NewNop())
	ctx := context.Background()

	_, _, err := svc.Recommendations(ctx, 1, 0, 10)
	require.NoError(t, err)
	_, _, err = svc.Recommendations(ctx, 1, 0, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.poolCalls)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	repo := &stubRepo{
		subject: testSubject(),
		pool:    []match.Candidate{{ProfileID: 2, Age: 27}},
	}
	svc := NewMatchService(repo, testCache(t), logger.NewNop())
	ctx := context.Background()

	_, _, err := svc.Recommendations(ctx, 1, 0, 10)
	require.NoError(t, err)

	svc.Invalidate(ctx, 1)

	_, _, err = svc.Recommendations(ctx, 1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.poolCalls)
}

func TestRecommendationsNoSubject(t *testing.T) {
	svc := NewMatchService(&stubRepo{}, testCache(t), logger.NewNop())

	_, _, err := svc.Recommendations(context.Background(), 1, 0, 10)
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestRecommendationsOtherGenderEmptyPool(t *testing.T) {
	subject := testSubject()
	subject.Profile.Gender = profile.GenderOther
	repo := &stubRepo{subject: subject, pool: []match.Candidate{{ProfileID: 2}}}
	svc := NewMatchService(repo, testCache(t), logger.NewNop())

	page, total, err := svc.Recommendations(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
	assert.Zero(t, repo.poolCalls)
}

func TestRecommendationsWorksWithoutCache(t *testing.T) {
	repo := &stubRepo{
		subject: testSubject(),
		pool:    []match.Candidate{{ProfileID: 2, Age: 27}},
	}
	svc := NewMatchService(repo, nil, logger.NewNop())

	_, total, err := svc.Recommendations(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestScoreAgainst(t *testing.T) {
	repo := &stubRepo{
		subject: testSubject(),
		pool: []match.Candidate{
			{ProfileID: 2, Age: 27},
			{ProfileID: 3, Age: 45},
		},
	}
	svc := NewMatchService(repo, testCache(t), logger.NewNop())
	ctx := context.Background()

	score, err := svc.ScoreAgainst(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, match.MaxScore, score)

	score, err = svc.ScoreAgainst(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, match.MaxScore-1, score)

	_, err = svc.ScoreAgainst(ctx, 1, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
