package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keysafehq/keysafe/pkg/backend/postgres"
	"github.com/keysafehq/keysafe/pkg/db"
	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/seal"
)

// newTestStore connects to the database named by DATABASE_URL. The schema
// must already be migrated; tests are skipped when no database is available.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}

	key, err := seal.RandomBytes(32)
	require.NoError(t, err)
	cipher, err := seal.NewSymmetric(key)
	require.NoError(t, err)

	conn, err := db.Connect(db.Config{Cipher: cipher})
	require.NoError(t, err)

	return postgres.NewStore(conn)
}

func TestAddAndAccessSecretVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project := "test-" + uuid.NewString()
	path := store.SecretVersionPath(project, "wallet-a", "latest")

	require.NoError(t, store.AddSecretVersion(ctx, path, []byte("first"), time.Now().Add(time.Hour)))
	require.NoError(t, store.AddSecretVersion(ctx, path, []byte("second"), time.Now().Add(time.Hour)))

	payload, err := store.AccessSecretVersion(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), payload, "access returns the newest revision")
}

func TestAccessMissingVersion(t *testing.T) {
	store := newTestStore(t)

	path := store.SecretVersionPath("test-"+uuid.NewString(), "wallet-a", "latest")
	_, err := store.AccessSecretVersion(context.Background(), path)
	assert.ErrorIs(t, err, keymanager.ErrVersionNotFound)
}

func TestVersionLabelsAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project := "test-" + uuid.NewString()
	v1 := store.SecretVersionPath(project, "wallet-a", "v1")
	v2 := store.SecretVersionPath(project, "wallet-a", "v2")

	require.NoError(t, store.AddSecretVersion(ctx, v1, []byte("key-v1"), time.Now().Add(time.Hour)))
	require.NoError(t, store.AddSecretVersion(ctx, v2, []byte("key-v2"), time.Now().Add(time.Hour)))

	payload, err := store.AccessSecretVersion(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, []byte("key-v1"), payload)

	payload, err = store.AccessSecretVersion(ctx, v2)
	require.NoError(t, err)
	assert.Equal(t, []byte("key-v2"), payload)
}

func TestDueForRotation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project := "test-" + uuid.NewString()
	overdue := store.SecretVersionPath(project, "overdue", "latest")
	fresh := store.SecretVersionPath(project, "fresh", "latest")

	require.NoError(t, store.AddSecretVersion(ctx, overdue, []byte("key"), time.Now().Add(-time.Minute)))
	require.NoError(t, store.AddSecretVersion(ctx, fresh, []byte("key"), time.Now().Add(time.Hour)))

	due, err := store.DueForRotation(ctx, time.Now())
	require.NoError(t, err)

	paths := map[string]bool{}
	for _, d := range due {
		paths[d.Path] = true
	}
	assert.True(t, paths[overdue])
	assert.False(t, paths[fresh])
}
