package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dresesc/winter-references-bot/internal/domain"
)

type ReportService struct {
	mock.Mock
}

func (m *ReportService) UserTotal(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ReportService) Leaderboard(ctx context.Context) ([]domain.RankingEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RankingEntry), args.Error(1)
}

func (m *ReportService) InvalidateLeaderboard(ctx context.Context) {
	m.Called(ctx)
}
