package ingest

import (
	"encoding/hex"
	"path"
	"path/filepath"
	"strings"

	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/blake2b"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/media/sniffer"
)

const (
	storagePrefix = "pictures"
	namePrefix    = "picture"
)

var extensionsByMIME = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/avif":    "avif",
	"image/tiff":    "tif",
	"image/svg+xml": "svg",
}

// Upload is a normalized binary ready for EXIF extraction and storage.
type Upload struct {
	Record      domain.FileRecord
	StorageName string
	Content     []byte
}

type Ingestor struct {
	newToken func() string
}

func New() *Ingestor {
	return &Ingestor{
		newToken: func() string { return ksuid.New().String() },
	}
}

// Ingest hashes the bytes and assigns a collision-resistant storage name.
// The hash depends on content only.
func (i *Ingestor) Ingest(content []byte, originalName string) (*Upload, error) {
	if len(content) == 0 {
		return nil, &domain.IngestionError{Reason: "file is empty"}
	}

	mimeType := sniffer.MimeType(content)
	storageName := namePrefix + i.newToken() + "." + extension(originalName, mimeType)

	return &Upload{
		Record: domain.FileRecord{
			Path:             path.Join(storagePrefix, storageName),
			MimeType:         mimeType,
			Hash:             Hash(content),
			OriginalFileName: originalName,
			Size:             int64(len(content)),
		},
		StorageName: storageName,
		Content:     content,
	}, nil
}

func Hash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func extension(originalName, mimeType string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	if ext != "" {
		return ext
	}
	if ext, ok := extensionsByMIME[mimeType]; ok {
		return ext
	}
	return "bin"
}
