// Package barrier provides the rendezvous points sessions synchronise on.
package barrier

import (
	"context"
	"sync"
)

// Barrier releases every waiter once parties have arrived, then resets for
// the next generation.
type Barrier struct {
	mu      sync.Mutex
	parties int
	arrived int
	release chan struct{}
}

func New(parties int) *Barrier {
	if parties < 1 {
		panic("barrier: parties must be positive")
	}
	return &Barrier{parties: parties, release: make(chan struct{})}
}

// Wait blocks until the current generation is complete. A cancelled waiter
// withdraws from its generation and returns ctx.Err().
func (b *Barrier) Wait(ctx context.Context) error {
	b.mu.Lock()
	gen := b.release
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.release = make(chan struct{})
		close(gen)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	select {
	case <-gen:
		return nil
	case <-ctx.Done():
		b.mu.Lock()
		defer b.mu.Unlock()
		select {
		case <-gen:
			// Completed while we were giving up.
			return nil
		default:
		}
		b.arrived--
		return ctx.Err()
	}
}

// Waiting reports how many parties are parked in the current generation.
func (b *Barrier) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.arrived
}
