package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/solarie/joias/internal/repository/memory"
	"github.com/solarie/joias/internal/repository/store"
)

type note struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Count     int       `bson:"count"`
	Tag       string    `bson:"tag,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](memory.New(), "notes")

	id, err := notes.Create(ctx, note{Title: "primeira", Count: 1})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "primeira", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, notes.Update(ctx, id, bson.M{"count": 2}))
	got, err = notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "primeira", got.Title)

	require.NoError(t, notes.Update(ctx, id, bson.M{"tag": "promo"}))
	created := got.CreatedAt
	require.NoError(t, notes.Replace(ctx, id, note{Title: "trocada", Count: 3}))
	got, err = notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "trocada", got.Title)
	assert.Empty(t, got.Tag)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.ErrorIs(t, notes.Replace(ctx, "missing", note{Title: "x"}), store.ErrNotFound)

	require.NoError(t, notes.Delete(ctx, id))
	_, err = notes.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, notes.Delete(ctx, id), store.ErrNotFound)
	assert.ErrorIs(t, notes.Update(ctx, id, bson.M{"count": 1}), store.ErrNotFound)
}

func TestCollection_Put(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](memory.New(), "notes")

	require.NoError(t, notes.Put(ctx, "fixed", bson.M{"title": "config", "count": 1}))
	first, err := notes.Get(ctx, "fixed")
	require.NoError(t, err)

	require.NoError(t, notes.Put(ctx, "fixed", bson.M{"count": 5}))
	second, err := notes.Get(ctx, "fixed")
	require.NoError(t, err)

	assert.Equal(t, "config", second.Title)
	assert.Equal(t, 5, second.Count)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	all, err := notes.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCollection_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](memory.New(), "notes")

	for _, title := range []string{"a", "b", "c"} {
		_, err := notes.Create(ctx, note{Title: title})
		require.NoError(t, err)
	}

	all, err := notes.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].Title, all[1].Title, all[2].Title})
}

func TestCollection_Subscribe(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](memory.New(), "notes")
	_, err := notes.Create(ctx, note{Title: "a"})
	require.NoError(t, err)

	var snapshots [][]note
	stop, err := notes.Subscribe(ctx, func(docs []note) {
		snapshots = append(snapshots, docs)
	}, nil)
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0], 1)

	id, err := notes.Create(ctx, note{Title: "b"})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "b", snapshots[1][0].Title)

	require.NoError(t, notes.Delete(ctx, id))
	require.Len(t, snapshots, 3)
	assert.Len(t, snapshots[2], 1)

	stop()
	_, err = notes.Create(ctx, note{Title: "c"})
	require.NoError(t, err)
	assert.Len(t, snapshots, 3)
}

func TestCollection_FaultHook(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	notes := store.NewCollection[note](backend, "notes")

	boom := errors.New("disk full")
	backend.SetFaultHook(func(op memory.Op, collection, _ string) error {
		if op == memory.OpInsert && collection == "notes" {
			return boom
		}
		return nil
	})

	_, err := notes.Create(ctx, note{Title: "a"})
	assert.ErrorIs(t, err, boom)

	backend.SetFaultHook(nil)
	_, err = notes.Create(ctx, note{Title: "a"})
	assert.NoError(t, err)
}
