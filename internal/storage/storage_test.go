package storage_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestObjectKey(t *testing.T) {
	key := storage.ObjectKey(12, "GST Certificate.PDF")
	assert.True(t, strings.HasPrefix(key, "vendors/12/"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)
	assert.NotEqual(t, key, storage.ObjectKey(12, "GST Certificate.PDF"))
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir(), 32)
	require.NoError(t, err)

	t.Run("upload download delete", func(t *testing.T) {
		key, size, err := s.Upload(ctx, 1, "pan.png", "image/png", bytes.NewReader([]byte("png-bytes")))
		require.NoError(t, err)
		assert.EqualValues(t, 9, size)

		rc, err := s.Download(ctx, key)
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(content))

		require.NoError(t, s.Delete(ctx, key))
		_, err = s.Download(ctx, key)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)

		assert.NoError(t, s.Delete(ctx, key), "deleting twice is not an error")
	})

	t.Run("too large", func(t *testing.T) {
		_, _, err := s.Upload(ctx, 1, "big.pdf", "application/pdf", strings.NewReader(strings.Repeat("x", 64)))
		assert.ErrorIs(t, err, storage.ErrTooLarge)
	})

	t.Run("keys cannot escape the base path", func(t *testing.T) {
		_, err := s.Download(ctx, "../../etc/passwd")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})
}

func TestNewStorage(t *testing.T) {
	s, err := storage.NewStorage(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir(), MaxUploadSizeMB: 1}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, s)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.ErrorContains(t, err, "connection string")

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported")
}
