package treestore

import (
	"context"
	"encoding/json"
	"sync"
)

type memNode struct {
	value json.RawMessage
	rev   int64
}

// MemoryBackend keeps the tree in process memory. It backs tests and the
// "memory" store driver for local development.
type MemoryBackend struct {
	mu    sync.RWMutex
	nodes map[string]memNode
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{nodes: make(map[string]memNode)}
}

func (m *MemoryBackend) snapshot(path string, n memNode, ok bool) Node {
	_, key := Split(path)
	if !ok {
		return Node{Path: path, Key: key}
	}
	v := make(json.RawMessage, len(n.value))
	copy(v, n.value)
	return Node{Path: path, Key: key, Exists: true, Value: v, Revision: n.rev}
}

func (m *MemoryBackend) Read(ctx context.Context, path string) (Node, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, err
	}
	path = CleanPath(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[path]
	return m.snapshot(path, n, ok), nil
}

func (m *MemoryBackend) put(path string, value json.RawMessage) {
	cur := m.nodes[path]
	v := make(json.RawMessage, len(value))
	copy(v, value)
	m.nodes[path] = memNode{value: v, rev: cur.rev + 1}
}

func (m *MemoryBackend) Write(ctx context.Context, path string, value json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(CleanPath(path), value)
	return nil
}

func (m *MemoryBackend) WriteIfRevision(ctx context.Context, path string, value json.RawMessage, revision int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = CleanPath(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nodes[path].rev != revision {
		return ErrRevisionConflict
	}
	m.put(path, value)
	return nil
}

func (m *MemoryBackend) UpdateFields(ctx context.Context, path string, fields map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = CleanPath(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	merged, err := MergeFields(m.nodes[path].value, fields)
	if err != nil {
		return err
	}
	m.put(path, merged)
	return nil
}

func (m *MemoryBackend) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, CleanPath(path))
	return nil
}

func (m *MemoryBackend) Children(ctx context.Context, path string) ([]Node, error) {
	return m.filterChildren(ctx, path, nil)
}

func (m *MemoryBackend) QueryByField(ctx context.Context, path, field string, value json.RawMessage) ([]Node, error) {
	return m.filterChildren(ctx, path, func(raw json.RawMessage) bool {
		return FieldEquals(raw, field, value)
	})
}

func (m *MemoryBackend) filterChildren(ctx context.Context, path string, keep func(json.RawMessage) bool) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parent := CleanPath(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Node, 0)
	for p, n := range m.nodes {
		if pp, _ := Split(p); pp != parent {
			continue
		}
		if keep != nil && !keep(n.value) {
			continue
		}
		out = append(out, m.snapshot(p, n, true))
	}
	SortNodes(out)
	return out, nil
}

func (m *MemoryBackend) Close() error { return nil }

var _ Backend = (*MemoryBackend)(nil)
