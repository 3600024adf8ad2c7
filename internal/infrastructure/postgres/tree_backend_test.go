package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/feedback-hub/internal/infrastructure/treestore"
	"github.com/oksasatya/feedback-hub/internal/testutil"
)

// Runs against a live database only when TEST_POSTGRES_DSN is set.
func newTestBackend(t *testing.T) *TreeBackend {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, RunMigrations(dsn, "../../../db/migrations", testutil.QuietLogger()))

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, "feedback-hub-test", 4, 1, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE tree_nodes`)
	require.NoError(t, err)
	return NewTreeBackend(pool)
}

func TestTreeBackend_ConditionalWrites(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.WriteIfRevision(ctx, "users/1", json.RawMessage(`{"name":"Ann"}`), 0))
	assert.ErrorIs(t, b.WriteIfRevision(ctx, "users/1", json.RawMessage(`{}`), 0), treestore.ErrRevisionConflict)
	assert.ErrorIs(t, b.WriteIfRevision(ctx, "users/1", json.RawMessage(`{}`), 7), treestore.ErrRevisionConflict)

	require.NoError(t, b.UpdateFields(ctx, "users/1", map[string]json.RawMessage{"averageRating": json.RawMessage(`4.5`)}))

	n, err := b.Read(ctx, "users/1")
	require.NoError(t, err)
	assert.True(t, n.Exists)
	assert.Equal(t, int64(2), n.Revision)
	assert.JSONEq(t, `{"name":"Ann","averageRating":4.5}`, string(n.Value))
}

func TestTreeBackend_QueryByField(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "feedbacks/b", json.RawMessage(`{"reviewerId":1}`)))
	require.NoError(t, b.Write(ctx, "feedbacks/a", json.RawMessage(`{"reviewerId":1}`)))
	require.NoError(t, b.Write(ctx, "feedbacks/c", json.RawMessage(`{"reviewerId":2}`)))

	hits, err := b.QueryByField(ctx, "feedbacks", "reviewerId", json.RawMessage(`1`))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Key)

	require.NoError(t, b.Remove(ctx, "feedbacks/a"))
	kids, err := b.Children(ctx, "feedbacks")
	require.NoError(t, err)
	assert.Len(t, kids, 2)
}

func TestTreeBackend_ChildrenNumericOrder(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	for _, id := range []string{"10", "2", "1"} {
		require.NoError(t, b.Write(ctx, "users/"+id, json.RawMessage(`{}`)))
	}

	kids, err := b.Children(ctx, "users")
	require.NoError(t, err)
	require.Len(t, kids, 3)
	assert.Equal(t, []string{"1", "2", "10"}, []string{kids[0].Key, kids[1].Key, kids[2].Key})
}
