package scheduler

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds how many account workers hold live Telegram connections at
// once. Acquire blocks until a slot frees or the context ends.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a gate with the given number of slots.
func NewGate(slots int) *Gate {
	if slots <= 0 {
		slots = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(slots))}
}

func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *Gate) Release() {
	g.sem.Release(1)
}
