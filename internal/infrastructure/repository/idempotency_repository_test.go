package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/testutil"
)

func storedKey(f *fixture, body string, at time.Time) *entity.IdempotencyKey {
	return &entity.IdempotencyKey{
		Key:          "k1",
		UserID:       f.owner.ID,
		Endpoint:     "POST /api/v1/receipts",
		RequestHash:  body,
		ResponseCode: 201,
		ResponseBody: body,
		CreatedAt:    at,
		ExpiresAt:    at.Add(time.Hour),
	}
}

func TestIdempotencyRepository_FirstWriterWins(t *testing.T) {
	f := newFixture(t)
	repo := NewIdempotencyRepository(f.db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedKey(f, `{"n":1}`, testutil.Epoch)))
	require.NoError(t, repo.Create(ctx, storedKey(f, `{"n":2}`, testutil.Epoch.Add(time.Minute))))

	got, err := repo.GetByKey(ctx, "k1", f.owner.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"n":1}`, got.ResponseBody)
}

func TestIdempotencyRepository_ExpiredKeyIsReplaced(t *testing.T) {
	f := newFixture(t)
	repo := NewIdempotencyRepository(f.db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedKey(f, `{"n":1}`, testutil.Epoch)))

	later := testutil.Epoch.Add(2 * time.Hour)
	require.NoError(t, repo.Create(ctx, storedKey(f, `{"n":2}`, later)))

	got, err := repo.GetByKey(ctx, "k1", f.owner.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"n":2}`, got.ResponseBody)
	assert.False(t, got.IsExpired(later))

	var count int64
	require.NoError(t, f.db.Model(&entity.IdempotencyKey{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
