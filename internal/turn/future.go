package turn

import "context"

// future is a single-value join handle for a concurrent task. The
// producing goroutine writes into a buffered channel, so it never leaks
// even when the consumer abandons the join on context cancellation.
type future[T any] struct {
	ch       chan T
	fallback T
}

// spawn starts fn in its own goroutine and returns its join handle.
// fallback is returned when the join is abandoned by a done context.
func spawn[T any](fn func() T, fallback T) *future[T] {
	f := &future[T]{ch: make(chan T, 1), fallback: fallback}
	go func() {
		f.ch <- fn()
	}()
	return f
}

// join waits for the task result. Must be called exactly once.
func (f *future[T]) join(ctx context.Context) T {
	select {
	case v := <-f.ch:
		return v
	case <-ctx.Done():
		return f.fallback
	}
}
