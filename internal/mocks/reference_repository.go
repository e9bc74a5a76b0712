package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dresesc/winter-references-bot/internal/domain"
)

type ReferenceRepository struct {
	mock.Mock
}

func (m *ReferenceRepository) Create(ctx context.Context, ref *domain.Reference) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *ReferenceRepository) AddPhoto(ctx context.Context, photo *domain.ReferencePhoto) error {
	args := m.Called(ctx, photo)
	return args.Error(0)
}

func (m *ReferenceRepository) CreateWithPhotos(ctx context.Context, ref *domain.Reference, photos []domain.ReferencePhoto) error {
	args := m.Called(ctx, ref, photos)
	return args.Error(0)
}

func (m *ReferenceRepository) GetByID(ctx context.Context, id int64) (*domain.Reference, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reference), args.Error(1)
}

func (m *ReferenceRepository) GetPhoto(ctx context.Context, photoID int64) (*domain.ReferencePhoto, error) {
	args := m.Called(ctx, photoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferencePhoto), args.Error(1)
}

func (m *ReferenceRepository) ListPhotos(ctx context.Context, referenceID int64) ([]domain.ReferencePhoto, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferencePhoto), args.Error(1)
}

func (m *ReferenceRepository) UpdateStatus(ctx context.Context, referenceID int64, status domain.ReferenceStatus) error {
	args := m.Called(ctx, referenceID, status)
	return args.Error(0)
}

func (m *ReferenceRepository) UpdatePhotoStatus(ctx context.Context, photoID int64, status domain.ReferenceStatus) error {
	args := m.Called(ctx, photoID, status)
	return args.Error(0)
}

func (m *ReferenceRepository) UpdateAllPhotoStatuses(ctx context.Context, referenceID int64, status domain.ReferenceStatus) error {
	args := m.Called(ctx, referenceID, status)
	return args.Error(0)
}

func (m *ReferenceRepository) CountPhotoStatuses(ctx context.Context, referenceID int64) (int64, int64, int64, error) {
	args := m.Called(ctx, referenceID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}

func (m *ReferenceRepository) CountApprovedForUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ReferenceRepository) Ranking(ctx context.Context) ([]domain.RankingEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RankingEntry), args.Error(1)
}

func (m *ReferenceRepository) ResetAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
