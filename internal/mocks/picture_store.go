package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"picture-catalog/internal/domain"
)

type PictureStore struct {
	mock.Mock
}

func (m *PictureStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Picture, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Picture), args.Error(1)
}

func (m *PictureStore) Save(ctx context.Context, picture *domain.Picture) error {
	args := m.Called(ctx, picture)
	return args.Error(0)
}

func (m *PictureStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
