package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/solarie/joias/internal/repository/store"
)

// Runs against a real replica set, e.g.
// MONGODB_TEST_URI="mongodb://localhost:27017/?replicaSet=rs0".
func newTestRepository(t *testing.T) *MongoDBRepository {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "joias_test_" + uuid.NewString()[:8]
	repo, err := NewMongoDBRepository(ctx, uri, dbName, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.client.Database(dbName).Drop(context.Background())
		_ = repo.Close(context.Background())
	})
	return repo
}

type doc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Tag       string    `bson:"tag,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func TestMongoDBRepository_CRUD(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	docs := store.NewCollection[doc](repo, "docs")

	id, err := docs.Create(ctx, doc{Name: "brinco"})
	require.NoError(t, err)

	require.NoError(t, docs.Update(ctx, id, bson.M{"name": "colar"}))
	got, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "colar", got.Name)

	require.NoError(t, docs.Update(ctx, id, bson.M{"tag": "promo"}))
	require.NoError(t, docs.Replace(ctx, id, doc{Name: "pulseira"}))
	replaced, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pulseira", replaced.Name)
	assert.Empty(t, replaced.Tag)
	assert.True(t, got.CreatedAt.Equal(replaced.CreatedAt))

	require.NoError(t, docs.Put(ctx, "fixed", bson.M{"name": "config"}))
	all, err := docs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, docs.Delete(ctx, id))
	_, err = docs.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, docs.Delete(ctx, id), store.ErrNotFound)
}

func TestMongoDBRepository_Watch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	docs := store.NewCollection[doc](repo, "docs")

	snapshots := make(chan []doc, 4)
	stop, err := docs.Subscribe(ctx, func(list []doc) { snapshots <- list }, nil)
	require.NoError(t, err)
	defer stop()

	assert.Empty(t, <-snapshots)

	_, err = docs.Create(ctx, doc{Name: "anel"})
	require.NoError(t, err)

	select {
	case list := <-snapshots:
		require.Len(t, list, 1)
		assert.Equal(t, "anel", list[0].Name)
	case <-time.After(10 * time.Second):
		t.Fatal("no change notification")
	}
}
