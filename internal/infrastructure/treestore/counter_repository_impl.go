package treestore

import (
	"context"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/domain/repository"
)

// CounterRepository stores the last allocated user id as a scalar at CounterPath.
type CounterRepository struct {
	gw *Gateway
}

func NewCounterRepository(gw *Gateway) *CounterRepository {
	return &CounterRepository{gw: gw}
}

func readCounter(n Node) (int64, error) {
	if !n.Exists {
		return 0, nil
	}
	var v int64
	if err := n.Decode(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (r *CounterRepository) Reserve(ctx context.Context) (int64, error) {
	var next int64
	_, err := r.gw.Transact(ctx, CounterPath, func(cur Node) (any, error) {
		v, err := readCounter(cur)
		if err != nil {
			return nil, apperr.Parse("reserveUserId", err, "Failed to parse user ID counter")
		}
		next = v + 1
		return next, nil
	})
	if err != nil {
		return 0, apperr.Rephrase(err, "reserveUserId", "Failed to read user ID counter: %v", err)
	}
	return next, nil
}

func (r *CounterRepository) Current(ctx context.Context) (int64, error) {
	n, err := r.gw.Read(ctx, CounterPath)
	if err != nil {
		return 0, err
	}
	v, err := readCounter(n)
	if err != nil {
		return 0, apperr.Parse("readCounter", err, "Failed to parse user ID counter")
	}
	return v, nil
}

var _ repository.CounterRepository = (*CounterRepository)(nil)
