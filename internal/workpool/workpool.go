// Package workpool bounds how many goroutines run a piece of work at once.
package workpool

import "context"

type Limiter struct {
	ch chan struct{}
}

// NewLimiter allows up to capacity concurrent holders; anything below 1
// means 1.
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	return &Limiter{ch: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limiter) Release() {
	<-l.ch
}
