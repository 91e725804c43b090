package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"picture-catalog/internal/domain"
)

type ChangeRecordStore struct {
	mock.Mock
}

func (m *ChangeRecordStore) Create(ctx context.Context, records []*domain.ChangeRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *ChangeRecordStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.ChangeRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChangeRecord), args.Error(1)
}

func (m *ChangeRecordStore) ListByPicture(ctx context.Context, pictureID uuid.UUID, status *domain.ChangeRecordStatus, params domain.PaginationParams) ([]domain.ChangeRecord, int64, error) {
	args := m.Called(ctx, pictureID, status, params)
	return args.Get(0).([]domain.ChangeRecord), args.Get(1).(int64), args.Error(2)
}

func (m *ChangeRecordStore) UpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.ChangeRecordStatus, reviewerID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, ids, status, reviewerID, at)
	return args.Error(0)
}

func (m *ChangeRecordStore) DeleteByPicture(ctx context.Context, pictureID uuid.UUID) (int64, error) {
	args := m.Called(ctx, pictureID)
	return args.Get(0).(int64), args.Error(1)
}
