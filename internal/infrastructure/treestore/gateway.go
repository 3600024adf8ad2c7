package treestore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
)

const defaultTxnAttempts = 10

type Options struct {
	// OpTimeout bounds every single round trip; 0 disables the bound.
	OpTimeout time.Duration
	// MaxTxnAttempts bounds how often Transact re-reads after losing a conditional write.
	MaxTxnAttempts int
}

// Gateway wraps a Backend with per-call timeouts, typed failures and logging.
// It performs no caching and no failure retries: every call is a fresh round trip.
type Gateway struct {
	backend Backend
	logger  *logrus.Logger
	opts    Options
}

func NewGateway(backend Backend, logger *logrus.Logger, opts Options) *Gateway {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if opts.MaxTxnAttempts <= 0 {
		opts.MaxTxnAttempts = defaultTxnAttempts
	}
	return &Gateway{backend: backend, logger: logger, opts: opts}
}

func (g *Gateway) Backend() Backend { return g.backend }

func (g *Gateway) Close() error { return g.backend.Close() }

func (g *Gateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.opts.OpTimeout > 0 {
		return context.WithTimeout(ctx, g.opts.OpTimeout)
	}
	return ctx, func() {}
}

func (g *Gateway) fail(op, path string, err error) error {
	g.logger.WithError(err).WithFields(logrus.Fields{"op": op, "path": path}).Error("store operation failed")
	if errors.Is(err, ErrRevisionConflict) {
		return apperr.Conflict(op, err, "%s %s: %v", op, path, err)
	}
	return apperr.Store(op, err, "%s %s: %v", op, path, err)
}

func (g *Gateway) Read(ctx context.Context, path string) (Node, error) {
	path = CleanPath(path)
	c, cancel := g.bound(ctx)
	defer cancel()
	n, err := g.backend.Read(c, path)
	if err != nil {
		return Node{}, g.fail("read", path, err)
	}
	return n, nil
}

func (g *Gateway) Write(ctx context.Context, path string, value any) error {
	path = CleanPath(path)
	raw, err := json.Marshal(value)
	if err != nil {
		return apperr.Parse("write", err, "encode %s: %v", path, err)
	}
	c, cancel := g.bound(ctx)
	defer cancel()
	if err := g.backend.Write(c, path, raw); err != nil {
		return g.fail("write", path, err)
	}
	return nil
}

// WriteIfRevision writes value only if the node is still at revision.
// A lost race surfaces as an apperr Conflict wrapping ErrRevisionConflict.
func (g *Gateway) WriteIfRevision(ctx context.Context, path string, value any, revision int64) error {
	path = CleanPath(path)
	raw, err := json.Marshal(value)
	if err != nil {
		return apperr.Parse("write", err, "encode %s: %v", path, err)
	}
	c, cancel := g.bound(ctx)
	defer cancel()
	if err := g.backend.WriteIfRevision(c, path, raw, revision); err != nil {
		return g.fail("conditional write", path, err)
	}
	return nil
}

func (g *Gateway) UpdateFields(ctx context.Context, path string, fields map[string]any) error {
	path = CleanPath(path)
	enc := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return apperr.Parse("update", err, "encode %s.%s: %v", path, k, err)
		}
		enc[k] = b
	}
	c, cancel := g.bound(ctx)
	defer cancel()
	if err := g.backend.UpdateFields(c, path, enc); err != nil {
		return g.fail("update", path, err)
	}
	return nil
}

func (g *Gateway) Remove(ctx context.Context, path string) error {
	path = CleanPath(path)
	c, cancel := g.bound(ctx)
	defer cancel()
	if err := g.backend.Remove(c, path); err != nil {
		return g.fail("remove", path, err)
	}
	return nil
}

func (g *Gateway) Children(ctx context.Context, path string) ([]Node, error) {
	path = CleanPath(path)
	c, cancel := g.bound(ctx)
	defer cancel()
	nodes, err := g.backend.Children(c, path)
	if err != nil {
		return nil, g.fail("children", path, err)
	}
	return nodes, nil
}

func (g *Gateway) QueryByField(ctx context.Context, path, field string, value any) ([]Node, error) {
	path = CleanPath(path)
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, apperr.Parse("query", err, "encode %s=%v: %v", field, value, err)
	}
	c, cancel := g.bound(ctx)
	defer cancel()
	nodes, err := g.backend.QueryByField(c, path, field, raw)
	if err != nil {
		return nil, g.fail("query", path, err)
	}
	return nodes, nil
}

// PushKey generates a child key for path locally; it always succeeds.
func (g *Gateway) PushKey(path string) string {
	return NewPushKey()
}

// Transact performs read -> fn -> conditional write on path, re-reading and
// re-running fn whenever another writer changed the node in between. An error
// from fn aborts without writing and is returned unchanged.
func (g *Gateway) Transact(ctx context.Context, path string, fn func(current Node) (any, error)) (Node, error) {
	path = CleanPath(path)
	for attempt := 1; attempt <= g.opts.MaxTxnAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Node{}, g.fail("transact", path, err)
		}
		cur, err := g.Read(ctx, path)
		if err != nil {
			return Node{}, err
		}
		next, err := fn(cur)
		if err != nil {
			return Node{}, err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return Node{}, apperr.Parse("transact", err, "encode %s: %v", path, err)
		}
		c, cancel := g.bound(ctx)
		err = g.backend.WriteIfRevision(c, path, raw, cur.Revision)
		cancel()
		if err == nil {
			return Node{Path: path, Key: cur.Key, Exists: true, Value: raw, Revision: cur.Revision + 1}, nil
		}
		if !errors.Is(err, ErrRevisionConflict) {
			return Node{}, g.fail("transact", path, err)
		}
		g.logger.WithFields(logrus.Fields{"path": path, "attempt": attempt}).Debug("conditional write lost, retrying")
	}
	g.logger.WithFields(logrus.Fields{"path": path, "attempts": g.opts.MaxTxnAttempts}).Warn("transaction gave up")
	return Node{}, apperr.Conflict("transact", ErrRevisionConflict, "too much contention on %s after %d attempts", path, g.opts.MaxTxnAttempts)
}
