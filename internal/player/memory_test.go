package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCreateAndGet(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	p, err := r.Create(ctx, "morgana")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "morgana", got.Name)
	assert.Zero(t, got.Wins)

	ok, err := r.Exists(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRepositoryRejectsDuplicateName(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	_, err := r.Create(ctx, "morgana")
	require.NoError(t, err)
	_, err = r.Create(ctx, "morgana")
	assert.ErrorIs(t, err, ErrNameExists)
}

func TestMemoryRepositoryUnknownPlayer(t *testing.T) {
	r := NewMemoryRepository()
	_, err := r.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryRecordResult(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	w, err := r.Create(ctx, "winner")
	require.NoError(t, err)
	l, err := r.Create(ctx, "loser")
	require.NoError(t, err)

	require.NoError(t, r.RecordResult(ctx, w.ID, l.ID, false))
	require.NoError(t, r.RecordResult(ctx, w.ID, l.ID, true))

	gw, err := r.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.Wins)
	assert.Equal(t, 1, gw.Draws)

	gl, err := r.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gl.Losses)
	assert.Equal(t, 1, gl.Draws)

	assert.ErrorIs(t, r.RecordResult(ctx, w.ID, "ghost", false), ErrNotFound)
}
