package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"

	"picture-catalog/internal/domain"
)

type ExifExtractor struct {
	mock.Mock
}

func (m *ExifExtractor) Extract(r io.ReadSeeker) (*domain.ExifData, error) {
	args := m.Called(r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExifData), args.Error(1)
}
