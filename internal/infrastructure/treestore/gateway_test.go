package treestore_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/infrastructure/treestore"
	"github.com/oksasatya/feedback-hub/internal/testutil"
)

func newGateway(t *testing.T, b treestore.Backend, attempts int) *treestore.Gateway {
	t.Helper()
	return treestore.NewGateway(b, testutil.QuietLogger(), treestore.Options{OpTimeout: time.Second, MaxTxnAttempts: attempts})
}

func TestGateway_WriteReadRevision(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, treestore.NewMemoryBackend(), 0)

	n, err := gw.Read(ctx, "users/1")
	require.NoError(t, err)
	assert.False(t, n.Exists)
	assert.Equal(t, int64(0), n.Revision)

	require.NoError(t, gw.Write(ctx, "/users/1/", map[string]any{"name": "Ann"}))
	require.NoError(t, gw.Write(ctx, "users/1", map[string]any{"name": "Bob"}))

	n, err = gw.Read(ctx, "users/1")
	require.NoError(t, err)
	assert.True(t, n.Exists)
	assert.Equal(t, "1", n.Key)
	assert.Equal(t, int64(2), n.Revision)
	assert.JSONEq(t, `{"name":"Bob"}`, string(n.Value))
}

func TestGateway_WriteIfRevisionConflict(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, treestore.NewMemoryBackend(), 0)

	require.NoError(t, gw.WriteIfRevision(ctx, "users/1", 1, 0))
	err := gw.WriteIfRevision(ctx, "users/1", 2, 0)
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.ErrorIs(t, err, treestore.ErrRevisionConflict)

	require.NoError(t, gw.WriteIfRevision(ctx, "users/1", 3, 1))
}

func TestGateway_UpdateFieldsMerges(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, treestore.NewMemoryBackend(), 0)

	require.NoError(t, gw.Write(ctx, "users/1", map[string]any{"name": "Ann", "numberReviewers": 2}))
	require.NoError(t, gw.UpdateFields(ctx, "users/1", map[string]any{"numberReviewers": 3, "averageRating": 4.5}))

	n, err := gw.Read(ctx, "users/1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ann","numberReviewers":3,"averageRating":4.5}`, string(n.Value))

	require.NoError(t, gw.UpdateFields(ctx, "users/9", map[string]any{"role": "USER"}))
	n, err = gw.Read(ctx, "users/9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"USER"}`, string(n.Value))
}

func TestGateway_ChildrenAndQuery(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, treestore.NewMemoryBackend(), 0)

	require.NoError(t, gw.Write(ctx, "feedbacks/b", map[string]any{"reviewerId": 1, "grade": 4}))
	require.NoError(t, gw.Write(ctx, "feedbacks/a", map[string]any{"reviewerId": 2, "grade": 5}))
	require.NoError(t, gw.Write(ctx, "feedbacks/c", map[string]any{"reviewerId": 1, "grade": 1}))
	require.NoError(t, gw.Write(ctx, "users/1", map[string]any{"reviewerId": 1}))

	kids, err := gw.Children(ctx, "feedbacks")
	require.NoError(t, err)
	require.Len(t, kids, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{kids[0].Key, kids[1].Key, kids[2].Key})

	hits, err := gw.QueryByField(ctx, "feedbacks", "reviewerId", int64(1))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].Key)
	assert.Equal(t, "c", hits[1].Key)

	none, err := gw.Children(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestKeyLess_IntegerKeysFirstInNumericOrder(t *testing.T) {
	keys := []string{"b", "10", "2", "a", "007", "1", "-3"}
	treestore.SortKeys(keys)
	assert.Equal(t, []string{"1", "2", "10", "-3", "007", "a", "b"}, keys)
}

func TestGateway_ChildrenNumericOrder(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, treestore.NewMemoryBackend(), 0)

	for _, id := range []string{"10", "2", "1"} {
		require.NoError(t, gw.Write(ctx, "users/"+id, map[string]any{"role": "USER"}))
	}

	kids, err := gw.Children(ctx, "users")
	require.NoError(t, err)
	require.Len(t, kids, 3)
	assert.Equal(t, []string{"1", "2", "10"}, []string{kids[0].Key, kids[1].Key, kids[2].Key})

	hits, err := gw.QueryByField(ctx, "users", "role", "USER")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "10", hits[2].Key)
}

func TestGateway_BackendFailureIsTyped(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFaultyBackend(treestore.NewMemoryBackend())
	fb.Fail(testutil.OpRemove, "users", errors.New("permission denied"))
	gw := newGateway(t, fb, 0)

	err := gw.Remove(ctx, "users/1")
	require.Error(t, err)
	assert.True(t, apperr.IsStore(err))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestGateway_TransactSerializesConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, treestore.NewMemoryBackend(), 10000)

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.Transact(ctx, "userIdCounter", func(cur treestore.Node) (any, error) {
				var v int64
				if cur.Exists {
					if err := cur.Decode(&v); err != nil {
						return nil, err
					}
				}
				return v + 1, nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := gw.Read(ctx, "userIdCounter")
	require.NoError(t, err)
	var v int64
	require.NoError(t, json.Unmarshal(n.Value, &v))
	assert.Equal(t, int64(writers), v)
}

func TestGateway_TransactGivesUpUnderContention(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFaultyBackend(treestore.NewMemoryBackend())
	fb.Fail(testutil.OpWriteIfRevision, "userIdCounter", treestore.ErrRevisionConflict)
	gw := newGateway(t, fb, 3)

	_, err := gw.Transact(ctx, "userIdCounter", func(cur treestore.Node) (any, error) { return 1, nil })
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, 3, fb.Calls(testutil.OpWriteIfRevision))
}

func TestGateway_TransactAbortsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFaultyBackend(treestore.NewMemoryBackend())
	gw := newGateway(t, fb, 0)
	boom := errors.New("boom")

	_, err := gw.Transact(ctx, "users/1", func(cur treestore.Node) (any, error) { return nil, boom })
	assert.Same(t, boom, err)
	assert.Equal(t, 0, fb.Calls(testutil.OpWriteIfRevision))
}

func TestPushKeysSortInCreationOrder(t *testing.T) {
	keys := make([]string, 200)
	for i := range keys {
		keys[i] = treestore.NewPushKey()
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	assert.Equal(t, keys, sorted)
	assert.True(t, treestore.ValidKey(keys[0]))
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "users/1", treestore.CleanPath("//users//1/"))
	parent, key := treestore.Split("feedbacks/abc")
	assert.Equal(t, "feedbacks", parent)
	assert.Equal(t, "abc", key)
	parent, key = treestore.Split("userIdCounter")
	assert.Equal(t, "", parent)
	assert.Equal(t, "userIdCounter", key)
	assert.False(t, treestore.ValidKey("a/b"))
	assert.False(t, treestore.ValidKey(""))
	assert.False(t, treestore.ValidKey("a.b"))
}
