package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries_KV(t *testing.T) {
	database := openTestDB(t)
	q := database.Queries()
	ctx := context.Background()

	_, err := q.KVGet(ctx, "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))

	require.NoError(t, q.KVSet(ctx, KVSetParams{Key: "b", Value: []byte("1"), CreatedAt: 10, UpdatedAt: 10}))
	require.NoError(t, q.KVSet(ctx, KVSetParams{Key: "a", Value: []byte("2"), CreatedAt: 20, UpdatedAt: 20}))
	require.NoError(t, q.KVSet(ctx, KVSetParams{Key: "b", Value: []byte("3"), CreatedAt: 30, UpdatedAt: 30}))

	row, err := q.KVGet(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), row.Value)
	assert.Equal(t, int64(10), row.CreatedAt, "upsert keeps created_at")
	assert.Equal(t, int64(30), row.UpdatedAt)

	require.NoError(t, q.KVDelete(ctx, "a"))
	_, err = q.KVGet(ctx, "a")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = q.KVGet(ctx, "b")
	require.NoError(t, err)
}

func TestQueries_Profiles(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	params := CreateProfileParams{
		ID:            "p-1",
		Name:          "Ada",
		TargetCountry: "Germany",
		StudyLevel:    "Masters",
		StartDate:     1000,
		CreatedAt:     500,
	}

	err := database.WithTx(ctx, func(q *Queries) error {
		return q.CreateProfile(ctx, params)
	})
	require.NoError(t, err)

	got, err := database.Queries().GetProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, Profile(params), got)

	n, err := database.Queries().DeleteProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = database.Queries().DeleteProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := database.WithTx(ctx, func(q *Queries) error {
		if err := q.KVSet(ctx, KVSetParams{Key: "k", Value: []byte("v"), CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = database.Queries().KVGet(ctx, "k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
