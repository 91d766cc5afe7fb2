package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "abc"))
	token, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
