package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/feedback-hub/internal/infrastructure/treestore"
)

// TreeBackend keeps every node as one row of tree_nodes.
type TreeBackend struct {
	pool *pgxpool.Pool
}

func NewTreeBackend(pool *pgxpool.Pool) *TreeBackend {
	return &TreeBackend{pool: pool}
}

func (b *TreeBackend) Read(ctx context.Context, path string) (treestore.Node, error) {
	path = treestore.CleanPath(path)
	_, key := treestore.Split(path)
	n := treestore.Node{Path: path, Key: key}

	var value []byte
	err := b.pool.QueryRow(ctx, `
		SELECT value, revision
		FROM tree_nodes
		WHERE path = $1
	`, path).Scan(&value, &n.Revision)
	if errors.Is(err, pgx.ErrNoRows) {
		return n, nil
	}
	if err != nil {
		return n, err
	}
	n.Exists = true
	n.Value = value
	return n, nil
}

func (b *TreeBackend) Write(ctx context.Context, path string, value json.RawMessage) error {
	path = treestore.CleanPath(path)
	parent, key := treestore.Split(path)
	_, err := b.pool.Exec(ctx, `
		INSERT INTO tree_nodes (path, parent, key, value, revision, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, 1, now())
		ON CONFLICT (path) DO UPDATE
		SET value = EXCLUDED.value, revision = tree_nodes.revision + 1, updated_at = now()
	`, path, parent, key, string(value))
	return err
}

func (b *TreeBackend) WriteIfRevision(ctx context.Context, path string, value json.RawMessage, revision int64) error {
	path = treestore.CleanPath(path)
	parent, key := treestore.Split(path)

	var (
		affected int64
		err      error
	)
	if revision == 0 {
		tag, e := b.pool.Exec(ctx, `
			INSERT INTO tree_nodes (path, parent, key, value, revision, updated_at)
			VALUES ($1, $2, $3, $4::jsonb, 1, now())
			ON CONFLICT (path) DO NOTHING
		`, path, parent, key, string(value))
		affected, err = tag.RowsAffected(), e
	} else {
		tag, e := b.pool.Exec(ctx, `
			UPDATE tree_nodes
			SET value = $2::jsonb, revision = revision + 1, updated_at = now()
			WHERE path = $1 AND revision = $3
		`, path, string(value), revision)
		affected, err = tag.RowsAffected(), e
	}
	if err != nil {
		return err
	}
	if affected == 0 {
		return treestore.ErrRevisionConflict
	}
	return nil
}

// UpdateFields merges with jsonb || inside a single statement.
func (b *TreeBackend) UpdateFields(ctx context.Context, path string, fields map[string]json.RawMessage) error {
	path = treestore.CleanPath(path)
	parent, key := treestore.Split(path)
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = b.pool.Exec(ctx, `
		INSERT INTO tree_nodes (path, parent, key, value, revision, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, 1, now())
		ON CONFLICT (path) DO UPDATE
		SET value = CASE
				WHEN jsonb_typeof(tree_nodes.value) = 'object' THEN tree_nodes.value || EXCLUDED.value
				ELSE EXCLUDED.value
			END,
			revision = tree_nodes.revision + 1,
			updated_at = now()
	`, path, parent, key, string(patch))
	return err
}

func (b *TreeBackend) Remove(ctx context.Context, path string) error {
	_, err := b.pool.Exec(ctx, `DELETE FROM tree_nodes WHERE path = $1`, treestore.CleanPath(path))
	return err
}

func (b *TreeBackend) collect(rows pgx.Rows) ([]treestore.Node, error) {
	defer rows.Close()
	out := []treestore.Node{}
	for rows.Next() {
		var (
			n     treestore.Node
			value []byte
		)
		if err := rows.Scan(&n.Path, &n.Key, &value, &n.Revision); err != nil {
			return nil, err
		}
		n.Exists = true
		n.Value = value
		out = append(out, n)
	}
	return out, rows.Err()
}

func (b *TreeBackend) Children(ctx context.Context, path string) ([]treestore.Node, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT path, key, value, revision
		FROM tree_nodes
		WHERE parent = $1
	`, treestore.CleanPath(path))
	if err != nil {
		return nil, err
	}
	return b.sorted(rows)
}

func (b *TreeBackend) QueryByField(ctx context.Context, path, field string, value json.RawMessage) ([]treestore.Node, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT path, key, value, revision
		FROM tree_nodes
		WHERE parent = $1 AND value -> $2 = $3::jsonb
	`, treestore.CleanPath(path), field, string(value))
	if err != nil {
		return nil, err
	}
	return b.sorted(rows)
}

func (b *TreeBackend) sorted(rows pgx.Rows) ([]treestore.Node, error) {
	out, err := b.collect(rows)
	if err != nil {
		return nil, err
	}
	treestore.SortNodes(out)
	return out, nil
}

// Close is a no-op; the pool belongs to the caller.
func (b *TreeBackend) Close() error { return nil }

var _ treestore.Backend = (*TreeBackend)(nil)
