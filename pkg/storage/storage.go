package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klokku/notebook/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// BlobStorage keeps note page photos. Upload returns the public url of the stored object.
type BlobStorage interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, path string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, path string) error
	// PathOf maps a url returned by Upload back to its object path.
	PathOf(url string) (string, bool)
}

// PathForNote returns the object path of a note page photo or its thumbnail.
func PathForNote(userUid string, noteId string, thumbnail bool) string {
	suffix := ".jpg"
	if thumbnail {
		suffix = "_thumb.jpg"
	}
	return fmt.Sprintf("notes/%s/%s%s", sanitizeSegment(userUid), sanitizeSegment(noteId), suffix)
}

func sanitizeSegment(s string) string {
	return strings.NewReplacer("/", "_", ":", "_", "\\", "_", "..", "_").Replace(s)
}

// New builds the storage selected by cfg.Driver. host is the public address of this service and
// serves objects of the memory driver.
func New(cfg config.Storage, host string) (BlobStorage, error) {
	switch cfg.Driver {
	case "s3":
		return NewMinioStorage(cfg)
	case "memory", "":
		return NewMemoryStorage(strings.TrimSuffix(host, "/") + "/api/storage"), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func joinUrl(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

func trimBase(base, url string) (string, bool) {
	prefix := strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
