package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	kind, err := KindString("postgres")
	require.NoError(t, err)
	assert.Equal(t, KindPostgres, kind)

	kind, err = KindString("Memory")
	require.NoError(t, err)
	assert.Equal(t, KindMemory, kind)

	_, err = KindString("redis")
	assert.Error(t, err)
}

func TestKindRoundTrip(t *testing.T) {
	for _, kind := range KindValues() {
		assert.True(t, kind.IsAKind())

		parsed, err := KindString(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	assert.Equal(t, []string{"memory", "postgres"}, KindStrings())
	assert.False(t, Kind(99).IsAKind())
}
