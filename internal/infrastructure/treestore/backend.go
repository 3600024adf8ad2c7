// Package treestore is the gateway to the remote key -> subtree document
// store. Backends (Redis, Postgres, in-memory) implement the Backend contract;
// everything else in the service talks to the store only through Gateway.
package treestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
)

// ErrRevisionConflict is returned by WriteIfRevision when the node changed
// since the revision the caller read.
var ErrRevisionConflict = errors.New("treestore: revision conflict")

// ErrNodeAbsent is returned by Node.Decode on a node that does not exist.
var ErrNodeAbsent = errors.New("treestore: node does not exist")

// Node is a snapshot of one path. Revision is 0 for absent nodes and
// increases by one on every successful mutation.
type Node struct {
	Path     string
	Key      string
	Exists   bool
	Value    json.RawMessage
	Revision int64
}

func (n Node) Decode(dst any) error {
	if !n.Exists {
		return ErrNodeAbsent
	}
	return json.Unmarshal(n.Value, dst)
}

// Backend is the raw store capability. Implementations must be safe for
// concurrent use; none of them offers multi-path atomicity.
type Backend interface {
	Read(ctx context.Context, path string) (Node, error)
	Write(ctx context.Context, path string, value json.RawMessage) error
	// WriteIfRevision writes only when the stored revision equals revision
	// (0 = node must be absent); otherwise it returns ErrRevisionConflict.
	WriteIfRevision(ctx context.Context, path string, value json.RawMessage, revision int64) error
	// UpdateFields shallow-merges fields into the object at path, creating it if absent.
	UpdateFields(ctx context.Context, path string, fields map[string]json.RawMessage) error
	Remove(ctx context.Context, path string) error
	// Children returns the direct children of path ordered by key.
	Children(ctx context.Context, path string) ([]Node, error)
	// QueryByField returns the direct children of path whose field equals value.
	QueryByField(ctx context.Context, path, field string, value json.RawMessage) ([]Node, error)
	Close() error
}

// CleanPath trims surrounding slashes and collapses empty segments
func CleanPath(p string) string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// Join builds a clean path from segments
func Join(segments ...string) string { return CleanPath(strings.Join(segments, "/")) }

// Split returns the parent path and the last segment of p
func Split(p string) (parent, key string) {
	p = CleanPath(p)
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

// ValidKey reports whether k can be used as a single path segment
func ValidKey(k string) bool {
	if k == "" || len(k) > 768 {
		return false
	}
	return !strings.ContainsAny(k, "/.#$[]")
}

// MergeFields shallow-merges fields into the JSON object raw (nil or "null" = empty object)
func MergeFields(raw json.RawMessage, fields map[string]json.RawMessage) (json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	if len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		obj[k] = v
	}
	return json.Marshal(obj)
}

// FieldEquals reports whether the JSON object raw has field equal to want,
// comparing decoded values so 4 and 4.0 match.
func FieldEquals(raw json.RawMessage, field string, want json.RawMessage) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	got, ok := obj[field]
	if !ok {
		return false
	}
	var a, b any
	if json.Unmarshal(got, &a) != nil || json.Unmarshal(want, &b) != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
