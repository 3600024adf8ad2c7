package application

import (
	"context"

	"github.com/oksasatya/feedback-hub/internal/domain/repository"
)

// IDAllocator hands out user ids. An id is reserved before the user record is
// written, so a failed write leaves a gap but never a duplicate.
type IDAllocator struct {
	counters repository.CounterRepository
}

func NewIDAllocator(counters repository.CounterRepository) *IDAllocator {
	return &IDAllocator{counters: counters}
}

func (a *IDAllocator) Next(ctx context.Context) (int64, error) {
	return a.counters.Reserve(ctx)
}

// Last returns the most recently allocated id, 0 when none was allocated yet.
func (a *IDAllocator) Last(ctx context.Context) (int64, error) {
	return a.counters.Current(ctx)
}
