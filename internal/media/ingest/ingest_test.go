package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picture-catalog/internal/domain"
)

var jpegHead = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func TestIngestor_Ingest(t *testing.T) {
	ing := New()

	t.Run("Hash Ignores File Name", func(t *testing.T) {
		a, err := ing.Ingest(jpegHead, "lake.jpg")
		require.NoError(t, err)
		b, err := ing.Ingest(jpegHead, "other-name.jpeg")
		require.NoError(t, err)

		assert.Equal(t, a.Record.Hash, b.Record.Hash)
		assert.NotEqual(t, a.StorageName, b.StorageName)
		assert.Len(t, a.Record.Hash, 64)
	})

	t.Run("Different Content Different Hash", func(t *testing.T) {
		a, err := ing.Ingest(jpegHead, "lake.jpg")
		require.NoError(t, err)
		b, err := ing.Ingest(append([]byte{}, append(jpegHead, 0x01)...), "lake.jpg")
		require.NoError(t, err)

		assert.NotEqual(t, a.Record.Hash, b.Record.Hash)
	})

	t.Run("Record Fields", func(t *testing.T) {
		up, err := ing.Ingest(jpegHead, "Lake.JPG")
		require.NoError(t, err)

		assert.Equal(t, "image/jpeg", up.Record.MimeType)
		assert.Equal(t, int64(len(jpegHead)), up.Record.Size)
		assert.Equal(t, "Lake.JPG", up.Record.OriginalFileName)
		assert.True(t, strings.HasPrefix(up.StorageName, "picture"))
		assert.True(t, strings.HasSuffix(up.StorageName, ".jpg"))
		assert.Equal(t, "pictures/"+up.StorageName, up.Record.Path)
	})

	t.Run("Extension From MIME", func(t *testing.T) {
		up, err := ing.Ingest(jpegHead, "upload")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(up.StorageName, ".jpg"))
	})

	t.Run("Empty Content", func(t *testing.T) {
		up, err := ing.Ingest(nil, "lake.jpg")

		assert.Nil(t, up)
		var ingestionErr *domain.IngestionError
		assert.True(t, errors.As(err, &ingestionErr))
	})
}
