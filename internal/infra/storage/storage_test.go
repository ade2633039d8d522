package storage

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	store := NewMemoryStorage()
	data := []byte("png-bytes")

	obj, err := store.Put(context.Background(), "uploads/s/1/a.png", data, "image/png")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), obj.Size)
	require.Len(t, obj.ETag, 32)

	data[0] = 'X'
	rc, err := store.Get(context.Background(), obj.Key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(got))

	require.NoError(t, store.Delete(context.Background(), obj.Key))
	require.Equal(t, 0, store.Len())
	_, err = store.Get(context.Background(), obj.Key)
	require.Error(t, err)
}

func TestMemoryStorageRejectsEmptyKey(t *testing.T) {
	_, err := NewMemoryStorage().Put(context.Background(), "", nil, "")
	require.Error(t, err)
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "acc.r2.cloudflarestorage.com", sanitizeEndpoint("https://acc.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint(" http://localhost:9000 "))
	require.Equal(t, "", sanitizeEndpoint(""))
}

func TestNewR2StorageRequiresBucket(t *testing.T) {
	_, err := NewR2Storage(R2Config{Endpoint: "localhost:9000"}, nil)
	require.Error(t, err)

	store, err := NewR2Storage(R2Config{Endpoint: "http://localhost:9000", Bucket: "schematics"}, nil)
	require.NoError(t, err)
	require.Equal(t, "schematics", store.bucket)
}
