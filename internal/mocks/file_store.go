package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type FileStore struct {
	mock.Mock
}

func (m *FileStore) Upload(ctx context.Context, path string, content []byte, mimeType string) error {
	args := m.Called(ctx, path, content, mimeType)
	return args.Error(0)
}

func (m *FileStore) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *FileStore) WebPath(path string) string {
	args := m.Called(path)
	return args.String(0)
}
