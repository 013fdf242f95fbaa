package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keysafehq/keysafe/pkg/keymanager"
)

func TestAddAndAccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	path := store.SecretVersionPath("p1", "wallet-a", "latest")

	require.NoError(t, store.AddSecretVersion(ctx, path, []byte("key"), time.Now().Add(time.Hour)))

	payload, err := store.AccessSecretVersion(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), payload)
}

func TestAccessReturnsNewestVersion(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	path := store.SecretVersionPath("p1", "wallet-a", "latest")
	next := time.Now().Add(time.Hour)

	require.NoError(t, store.AddSecretVersion(ctx, path, []byte("first"), next))
	require.NoError(t, store.AddSecretVersion(ctx, path, []byte("second"), next))

	assert.Equal(t, 2, store.VersionCount(path))

	payload, err := store.AccessSecretVersion(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), payload)
}

func TestAccessMissing(t *testing.T) {
	store := NewStore()
	path := store.SecretVersionPath("p1", "wallet-a", "latest")

	_, err := store.AccessSecretVersion(context.Background(), path)
	assert.ErrorIs(t, err, keymanager.ErrVersionNotFound)
}

func TestMalformedPathRejected(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	assert.Error(t, store.AddSecretVersion(ctx, "not/a/path", []byte("key"), time.Now()))

	_, err := store.AccessSecretVersion(ctx, "not/a/path")
	assert.Error(t, err)
}

func TestPayloadCopied(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	path := store.SecretVersionPath("p1", "wallet-a", "latest")

	payload := []byte("key")
	require.NoError(t, store.AddSecretVersion(ctx, path, payload, time.Now().Add(time.Hour)))
	payload[0] = 'x'

	got, err := store.AccessSecretVersion(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), got, "store must not alias caller memory")
}

func TestDueForRotation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now()

	overdue := store.SecretVersionPath("p1", "overdue", "latest")
	fresh := store.SecretVersionPath("p1", "fresh", "latest")

	require.NoError(t, store.AddSecretVersion(ctx, overdue, []byte("key"), now.Add(-time.Minute)))
	require.NoError(t, store.AddSecretVersion(ctx, fresh, []byte("key"), now.Add(time.Hour)))

	due, err := store.DueForRotation(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue, due[0].Path)
}

func TestDueForRotationChecksNewestVersion(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now()
	path := store.SecretVersionPath("p1", "wallet-a", "latest")

	// the overdue schedule is superseded by the newer version's
	require.NoError(t, store.AddSecretVersion(ctx, path, []byte("old"), now.Add(-time.Hour)))
	require.NoError(t, store.AddSecretVersion(ctx, path, []byte("new"), now.Add(time.Hour)))

	due, err := store.DueForRotation(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}
