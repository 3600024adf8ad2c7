// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/infrastructure/treestore"
)

// Backend operation names used by FaultyBackend
const (
	OpRead            = "read"
	OpWrite           = "write"
	OpWriteIfRevision = "writeIfRevision"
	OpUpdateFields    = "updateFields"
	OpRemove          = "remove"
	OpChildren        = "children"
	OpQuery           = "query"
)

type fault struct {
	op     string
	prefix string
	skip   int
	err    error
}

// FaultyBackend wraps a backend, counts calls per operation and fails calls
// whose operation and path prefix match a registered fault.
type FaultyBackend struct {
	treestore.Backend

	mu     sync.Mutex
	faults []*fault
	calls  map[string]int
}

func NewFaultyBackend(inner treestore.Backend) *FaultyBackend {
	return &FaultyBackend{Backend: inner, calls: map[string]int{}}
}

// Fail makes every op on a path starting with prefix return err.
func (f *FaultyBackend) Fail(op, prefix string, err error) {
	f.FailAfter(op, prefix, 0, err)
}

// FailAfter lets the first skip matching calls through, then fails the rest.
func (f *FaultyBackend) FailAfter(op, prefix string, skip int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, &fault{op: op, prefix: prefix, skip: skip, err: err})
}

// Heal drops every registered fault
func (f *FaultyBackend) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = nil
}

func (f *FaultyBackend) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FaultyBackend) hit(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	path = treestore.CleanPath(path)
	for _, ft := range f.faults {
		if ft.op != op || !strings.HasPrefix(path, ft.prefix) {
			continue
		}
		if ft.skip > 0 {
			ft.skip--
			continue
		}
		return ft.err
	}
	return nil
}

func (f *FaultyBackend) Read(ctx context.Context, path string) (treestore.Node, error) {
	if err := f.hit(OpRead, path); err != nil {
		return treestore.Node{}, err
	}
	return f.Backend.Read(ctx, path)
}

func (f *FaultyBackend) Write(ctx context.Context, path string, value json.RawMessage) error {
	if err := f.hit(OpWrite, path); err != nil {
		return err
	}
	return f.Backend.Write(ctx, path, value)
}

func (f *FaultyBackend) WriteIfRevision(ctx context.Context, path string, value json.RawMessage, revision int64) error {
	if err := f.hit(OpWriteIfRevision, path); err != nil {
		return err
	}
	return f.Backend.WriteIfRevision(ctx, path, value, revision)
}

func (f *FaultyBackend) UpdateFields(ctx context.Context, path string, fields map[string]json.RawMessage) error {
	if err := f.hit(OpUpdateFields, path); err != nil {
		return err
	}
	return f.Backend.UpdateFields(ctx, path, fields)
}

func (f *FaultyBackend) Remove(ctx context.Context, path string) error {
	if err := f.hit(OpRemove, path); err != nil {
		return err
	}
	return f.Backend.Remove(ctx, path)
}

func (f *FaultyBackend) Children(ctx context.Context, path string) ([]treestore.Node, error) {
	if err := f.hit(OpChildren, path); err != nil {
		return nil, err
	}
	return f.Backend.Children(ctx, path)
}

func (f *FaultyBackend) QueryByField(ctx context.Context, path, field string, value json.RawMessage) ([]treestore.Node, error) {
	if err := f.hit(OpQuery, path); err != nil {
		return nil, err
	}
	return f.Backend.QueryByField(ctx, path, field, value)
}

// Snapshot returns the raw JSON stored at path, or "" when absent.
func Snapshot(t interface{ Fatalf(string, ...any) }, b treestore.Backend, path string) string {
	n, err := b.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !n.Exists {
		return ""
	}
	return string(n.Value)
}

// QuietLogger returns a logrus logger that discards output
func QuietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
