package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/mocks"
	"picture-catalog/internal/service/audit"
)

func TestService_GetRecentActivities(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(mocks.AuditLogRepository)
		svc := audit.NewService(repo, new(mocks.PictureStore))

		logs := []domain.AuditLog{{ID: uuid.New(), Action: domain.AuditActionValidateChanges}}
		repo.On("List", ctx, domain.AuditFilter{Action: domain.AuditActionValidateChanges}, domain.PaginationParams{Page: 1, PageSize: 10}).
			Return(logs, int64(1), nil).Once()

		got, err := svc.GetRecentActivities(ctx, domain.AuditActionValidateChanges, 10)

		assert.NoError(t, err)
		assert.Equal(t, logs, got)
		repo.AssertExpectations(t)
	})

	t.Run("Limit Is Clamped", func(t *testing.T) {
		repo := new(mocks.AuditLogRepository)
		svc := audit.NewService(repo, new(mocks.PictureStore))

		repo.On("List", ctx, domain.AuditFilter{}, domain.PaginationParams{Page: 1, PageSize: 100}).
			Return(nil, int64(0), nil).Once()

		got, err := svc.GetRecentActivities(ctx, "", 5000)

		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		repo.AssertExpectations(t)
	})

	t.Run("Unknown Action", func(t *testing.T) {
		repo := new(mocks.AuditLogRepository)
		svc := audit.NewService(repo, new(mocks.PictureStore))

		_, err := svc.GetRecentActivities(ctx, "APPROVE_REQUEST", 10)

		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_GetPictureHistory(t *testing.T) {
	ctx := context.Background()
	pictureID := uuid.New()
	byPicture := domain.AuditFilter{PictureID: &pictureID}

	t.Run("Success", func(t *testing.T) {
		repo := new(mocks.AuditLogRepository)
		svc := audit.NewService(repo, new(mocks.PictureStore))

		logs := []domain.AuditLog{{ID: uuid.New(), PictureID: pictureID}, {ID: uuid.New(), PictureID: pictureID}}
		repo.On("List", ctx, byPicture, mock.MatchedBy(func(p domain.PaginationParams) bool {
			return p.Page == 1 && p.PageSize == 20
		})).Return(logs, int64(2), nil).Once()

		page, err := svc.GetPictureHistory(ctx, pictureID, domain.PaginationParams{})

		assert.NoError(t, err)
		assert.Equal(t, int64(2), page.TotalItems)
		assert.Len(t, page.Data, 2)
		assert.False(t, page.HasNext)
	})

	t.Run("Unknown Picture", func(t *testing.T) {
		repo := new(mocks.AuditLogRepository)
		pictures := new(mocks.PictureStore)
		svc := audit.NewService(repo, pictures)

		repo.On("List", ctx, byPicture, mock.Anything).Return(nil, int64(0), nil).Once()
		pictures.On("GetByID", ctx, pictureID).Return(nil, domain.ErrPictureNotFound).Once()

		_, err := svc.GetPictureHistory(ctx, pictureID, domain.DefaultPagination())

		assert.ErrorIs(t, err, domain.ErrPictureNotFound)
		pictures.AssertExpectations(t)
	})

	t.Run("Store Error", func(t *testing.T) {
		repo := new(mocks.AuditLogRepository)
		svc := audit.NewService(repo, new(mocks.PictureStore))

		repo.On("List", ctx, byPicture, mock.Anything).Return(nil, int64(0), errors.New("connection refused")).Once()

		_, err := svc.GetPictureHistory(ctx, pictureID, domain.DefaultPagination())

		require.Error(t, err)
		assert.False(t, domain.IsRequestError(err))
	})
}
