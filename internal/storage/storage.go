package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrObjectNotFound is returned by Download when the object does not exist
	ErrObjectNotFound = errors.New("stored object not found")

	// ErrTooLarge is returned by Upload when the payload exceeds the configured limit
	ErrTooLarge = errors.New("upload exceeds maximum size")
)

// Storage stores vendor documents. Object keys are opaque to callers and are persisted
// on the document row.
type Storage interface {
	Upload(ctx context.Context, vendorID uint, filename, contentType string, data io.Reader) (string, int64, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewStorage creates the backend selected by cfg.Mode ("local" or "azure")
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	maxBytes := cfg.MaxUploadSizeMB * 1024 * 1024

	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath, maxBytes)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, maxBytes, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// ObjectKey builds "vendors/<id>/<uuid><ext>" for a new upload
func ObjectKey(vendorID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("vendors", fmt.Sprint(vendorID), uuid.NewString()+ext)
}

// limitedReader fails with ErrTooLarge once more than max bytes have been read. max <= 0 disables it.
type limitedReader struct {
	r     io.Reader
	max   int64
	count int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.count += int64(n)
	if l.max > 0 && l.count > l.max {
		return n, ErrTooLarge
	}
	return n, err
}

// LocalStorage keeps documents on the local filesystem. Used in development.
type LocalStorage struct {
	basePath string
	maxBytes int64
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		maxBytes: maxBytes,
	}, nil
}

func (s *LocalStorage) Upload(_ context.Context, vendorID uint, filename, _ string, data io.Reader) (string, int64, error) {
	key := ObjectKey(vendorID, filename)
	fullPath := s.fullPath(key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, &limitedReader{r: data, max: s.maxBytes})
	if err != nil {
		_ = os.Remove(fullPath)
		if errors.Is(err, ErrTooLarge) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return key, size, nil
}

func (s *LocalStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// fullPath resolves a key under basePath; keys cannot escape it
func (s *LocalStorage) fullPath(key string) string {
	clean := path.Clean("/" + key)
	return filepath.Join(s.basePath, filepath.FromSlash(clean))
}
