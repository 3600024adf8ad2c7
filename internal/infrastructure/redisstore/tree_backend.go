// Package redisstore stores the tree in Redis: one hash per node (fields v and rev)
// plus one set per parent listing its child keys.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/feedback-hub/internal/infrastructure/treestore"
)

const mergeAttempts = 16

var errMergeContention = errors.New("redis tree: field merge kept conflicting")

type TreeBackend struct {
	rdb    *redis.Client
	prefix string
}

// NewTreeBackend uses rdb without taking ownership; Close leaves it open.
func NewTreeBackend(rdb *redis.Client, prefix string) *TreeBackend {
	return &TreeBackend{rdb: rdb, prefix: prefix}
}

func (b *TreeBackend) nodeKey(path string) string    { return b.prefix + "n:" + path }
func (b *TreeBackend) indexKey(parent string) string { return b.prefix + "c:" + parent }

func toNode(path string, vals []any) (treestore.Node, error) {
	_, key := treestore.Split(path)
	n := treestore.Node{Path: path, Key: key}
	if len(vals) < 2 || vals[0] == nil {
		return n, nil
	}
	v, ok := vals[0].(string)
	if !ok {
		return n, errors.New("redis tree: unexpected value type")
	}
	rev := int64(0)
	if s, ok := vals[1].(string); ok {
		r, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return n, err
		}
		rev = r
	}
	n.Exists = true
	n.Value = json.RawMessage(v)
	n.Revision = rev
	return n, nil
}

func (b *TreeBackend) Read(ctx context.Context, path string) (treestore.Node, error) {
	path = treestore.CleanPath(path)
	vals, err := b.rdb.HMGet(ctx, b.nodeKey(path), "v", "rev").Result()
	if err != nil {
		return treestore.Node{}, err
	}
	return toNode(path, vals)
}

func (b *TreeBackend) Write(ctx context.Context, path string, value json.RawMessage) error {
	path = treestore.CleanPath(path)
	parent, key := treestore.Split(path)
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, b.nodeKey(path), "v", string(value))
		p.HIncrBy(ctx, b.nodeKey(path), "rev", 1)
		p.SAdd(ctx, b.indexKey(parent), key)
		return nil
	})
	return err
}

func currentRevision(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	rev, err := tx.HGet(ctx, key, "rev").Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return rev, err
}

func (b *TreeBackend) WriteIfRevision(ctx context.Context, path string, value json.RawMessage, revision int64) error {
	path = treestore.CleanPath(path)
	parent, key := treestore.Split(path)
	nk := b.nodeKey(path)
	err := b.rdb.Watch(ctx, func(tx *redis.Tx) error {
		rev, err := currentRevision(ctx, tx, nk)
		if err != nil {
			return err
		}
		if rev != revision {
			return treestore.ErrRevisionConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, nk, "v", string(value), "rev", revision+1)
			p.SAdd(ctx, b.indexKey(parent), key)
			return nil
		})
		return err
	}, nk)
	if errors.Is(err, redis.TxFailedErr) {
		return treestore.ErrRevisionConflict
	}
	return err
}

// UpdateFields merges under WATCH so concurrent merges never drop fields.
func (b *TreeBackend) UpdateFields(ctx context.Context, path string, fields map[string]json.RawMessage) error {
	path = treestore.CleanPath(path)
	parent, key := treestore.Split(path)
	nk := b.nodeKey(path)
	for i := 0; i < mergeAttempts; i++ {
		err := b.rdb.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := tx.HGet(ctx, nk, "v").Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			merged, err := treestore.MergeFields(json.RawMessage(cur), fields)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.HSet(ctx, nk, "v", string(merged))
				p.HIncrBy(ctx, nk, "rev", 1)
				p.SAdd(ctx, b.indexKey(parent), key)
				return nil
			})
			return err
		}, nk)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return errMergeContention
}

func (b *TreeBackend) Remove(ctx context.Context, path string) error {
	path = treestore.CleanPath(path)
	parent, key := treestore.Split(path)
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, b.nodeKey(path))
		p.SRem(ctx, b.indexKey(parent), key)
		return nil
	})
	return err
}

func (b *TreeBackend) Children(ctx context.Context, path string) ([]treestore.Node, error) {
	parent := treestore.CleanPath(path)
	keys, err := b.rdb.SMembers(ctx, b.indexKey(parent)).Result()
	if err != nil {
		return nil, err
	}
	treestore.SortKeys(keys)
	if len(keys) == 0 {
		return []treestore.Node{}, nil
	}
	pipe := b.rdb.Pipeline()
	cmds := make([]*redis.SliceCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HMGet(ctx, b.nodeKey(treestore.Join(parent, k)), "v", "rev")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make([]treestore.Node, 0, len(keys))
	for i, k := range keys {
		n, err := toNode(treestore.Join(parent, k), cmds[i].Val())
		if err != nil {
			return nil, err
		}
		// index entries can outlive a node removed by another writer
		if n.Exists {
			out = append(out, n)
		}
	}
	return out, nil
}

func (b *TreeBackend) QueryByField(ctx context.Context, path, field string, value json.RawMessage) ([]treestore.Node, error) {
	kids, err := b.Children(ctx, path)
	if err != nil {
		return nil, err
	}
	out := kids[:0]
	for _, n := range kids {
		if treestore.FieldEquals(n.Value, field, value) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (b *TreeBackend) Close() error { return nil }

var _ treestore.Backend = (*TreeBackend)(nil)
