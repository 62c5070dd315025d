package app

import (
	"context"
	"fmt"
)

// CapacityPool bounds the number of outstanding resource fetches across every
// episode of a batch. One unit is held for the duration of one fetch.
type CapacityPool struct {
	units chan struct{}
}

// NewCapacityPool creates a pool with size units
func NewCapacityPool(size int) (*CapacityPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("capacity pool size must be at least 1, got %d", size)
	}
	return &CapacityPool{units: make(chan struct{}, size)}, nil
}

// Acquire blocks until a unit is free or ctx is done
func (p *CapacityPool) Acquire(ctx context.Context) error {
	// Prefer a cancelled context over a free unit
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case p.units <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a unit taken by Acquire
func (p *CapacityPool) Release() {
	<-p.units
}

// Size returns the total number of units
func (p *CapacityPool) Size() int {
	return cap(p.units)
}
