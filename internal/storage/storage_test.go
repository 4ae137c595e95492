package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/billbot/core/config"
)

func TestPrefixes(t *testing.T) {
	assert.Equal(t, []string{"Bills", "Bills/2024", "Bills/2024/March"}, Prefixes("Bills/2024/March"))
	assert.Equal(t, []string{"/Bills", "/Bills/2024"}, Prefixes("/Bills//2024/"))
	assert.Empty(t, Prefixes(""))
}

func TestMemoryEnsureFolderIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.EnsureFolder(ctx, "Bills/2024/March/PowerCo"))
	created := m.Folders()
	require.NoError(t, m.EnsureFolder(ctx, "Bills/2024/March/PowerCo"))
	assert.Equal(t, created, m.Folders())
	assert.Equal(t, 4, created)
}

func TestMemoryUploadSemantics(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	path := "Bills/2024/March/PowerCo/Invoice.pdf"

	assert.ErrorIs(t, m.Upload(ctx, path, []byte("a"), false), ErrNotFound)

	require.NoError(t, m.EnsureFolder(ctx, "Bills/2024/March/PowerCo"))
	require.NoError(t, m.Upload(ctx, path, []byte("a"), false))
	assert.True(t, m.Exists(ctx, path))
	assert.ErrorIs(t, m.Upload(ctx, path, []byte("b"), false), ErrAlreadyExists)

	require.NoError(t, m.Upload(ctx, path, []byte("b"), true))
	got, ok := m.Object(path)
	require.True(t, ok)
	assert.Equal(t, "b", string(got))

	require.NoError(t, m.Delete(ctx, path))
	require.NoError(t, m.Delete(ctx, path))
	assert.False(t, m.Exists(ctx, path))
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(context.Background(), config.StorageConfig{Backend: config.StorageMemory})
	require.NoError(t, err)
	assert.Equal(t, "memory", c.Name())

	c, err = New(context.Background(), config.StorageConfig{
		Backend: config.StorageYandex,
		Yandex:  config.YandexConfig{Token: "t", BaseURL: "http://localhost"},
	})
	require.NoError(t, err)
	assert.Equal(t, "yandex", c.Name())

	_, err = New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}
