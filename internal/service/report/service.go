// Package report exposes the read-only aggregates: a user's approved total
// and the global ranking.
package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dresesc/winter-references-bot/internal/domain"
	"github.com/dresesc/winter-references-bot/internal/repository"
)

const (
	leaderboardKey = "refes:ranking"
	leaderboardTTL = 5 * time.Minute
)

type Service interface {
	UserTotal(ctx context.Context, userID int64) (int64, error)
	Leaderboard(ctx context.Context) ([]domain.RankingEntry, error)
	InvalidateLeaderboard(ctx context.Context)
}

type service struct {
	refRepo repository.ReferenceRepository
	redis   *redis.Client
}

// NewService builds the reporting service. redisClient may be nil, in which
// case the leaderboard is computed from the store on every call.
func NewService(refRepo repository.ReferenceRepository, redisClient *redis.Client) Service {
	return &service{
		refRepo: refRepo,
		redis:   redisClient,
	}
}

func (s *service) UserTotal(ctx context.Context, userID int64) (int64, error) {
	return s.refRepo.CountApprovedForUser(ctx, userID)
}

func (s *service) Leaderboard(ctx context.Context) ([]domain.RankingEntry, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, leaderboardKey).Result(); err == nil {
			var entries []domain.RankingEntry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				return entries, nil
			}
		}
	}

	entries, err := s.refRepo.Ranking(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(entries); err == nil {
			_ = s.redis.Set(ctx, leaderboardKey, payload, leaderboardTTL).Err()
		}
	}

	return entries, nil
}

// InvalidateLeaderboard drops the cached ranking. Called after every
// status-mutating decision and after a reset; best effort.
func (s *service) InvalidateLeaderboard(ctx context.Context) {
	if s.redis != nil {
		_ = s.redis.Del(ctx, leaderboardKey).Err()
	}
}
