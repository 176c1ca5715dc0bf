package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sangamam/matrimony/internal/domain/match"
	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/services/match/repository"
	"github.com/sangamam/matrimony/pkg/cache"
	"github.com/sangamam/matrimony/pkg/logger"
	"github.com/sangamam/matrimony/pkg/metrics"
)

// ErrNoSubject is returned when the requesting user or their profile does not
// exist.
var ErrNoSubject = errors.New("requesting user has no profile")

// cacheTTL bounds staleness of a ranked list. Preference edits invalidate
// eagerly; this covers candidate-side changes.
const cacheTTL = 5 * time.Minute

// Repository is the query surface for recommendations.
type Repository interface {
	GetSubject(ctx context.Context, userID uint) (*repository.Subject, error)
	CandidatePool(ctx context.Context, excludeProfileID uint, gender string) ([]match.Candidate, error)
}

type MatchService struct {
	repo   Repository
	cache  cache.Cache
	logger logger.Logger
}

func NewMatchService(repo Repository, c cache.Cache, log logger.Logger) *MatchService {
	return &MatchService{repo: repo, cache: c, logger: log}
}

func cacheKey(userID uint) string {
	return fmt.Sprintf("recommendations:%d", userID)
}

// Recommendations returns the ranked candidate list for the user, paginated
// after ranking so page boundaries are stable for a given preference set.
func (s *MatchService) Recommendations(ctx context.Context, userID uint, offset, limit int) ([]match.Candidate, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ranked, err := s.rankedFor(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	total := len(ranked)
	if offset >= total {
		return []match.Candidate{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ranked[offset:end], total, nil
}

func (s *MatchService) rankedFor(ctx context.Context, userID uint) ([]match.Candidate, error) {
	if s.cache != nil {
		var cached []match.Candidate
		err := s.cache.Get(ctx, cacheKey(userID), &cached)
		if err == nil {
			metrics.RecommendationCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("recommendation cache read failed", "user_id", userID, "error", err)
		}
		metrics.RecommendationCacheHits.WithLabelValues("miss").Inc()
	}

	started := time.Now()
	subject, err := s.repo.GetSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSubject
		}
		return nil, err
	}

	poolGender := profile.OppositeGender(subject.Profile.Gender)
	if poolGender == "" {
		return []match.Candidate{}, nil
	}

	pool, err := s.repo.CandidatePool(ctx, subject.Profile.ID, poolGender)
	if err != nil {
		return nil, err
	}

	ranked := match.Rank(subject.Preferences, pool)
	metrics.RecommendationDuration.Observe(time.Since(started).Seconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(userID), ranked, cacheTTL); err != nil {
			s.logger.Warn("recommendation cache write failed", "user_id", userID, "error", err)
		}
	}
	return ranked, nil
}

// ScoreAgainst computes the score of one candidate profile for the user,
// bypassing the cache. Used by the profile-detail view.
func (s *MatchService) ScoreAgainst(ctx context.Context, userID, candidateProfileID uint) (int, error) {
	subject, err := s.repo.GetSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNoSubject
		}
		return 0, err
	}

	poolGender := profile.OppositeGender(subject.Profile.Gender)
	pool, err := s.repo.CandidatePool(ctx, subject.Profile.ID, poolGender)
	if err != nil {
		return 0, err
	}
	for _, c := range pool {
		if c.ProfileID == candidateProfileID {
			return match.Score(subject.Preferences, c), nil
		}
	}
	return 0, repository.ErrNotFound
}

// Invalidate drops the user's cached ranking. Called when preferences or the
// profile change.
func (s *MatchService) Invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(userID)); err != nil {
		s.logger.Warn("recommendation cache invalidation failed", "user_id", userID, "error", err)
	}
}
