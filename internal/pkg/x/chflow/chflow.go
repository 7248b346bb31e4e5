// Package chflow has channel helpers that give up when a context is done.
package chflow

import "context"

// Receive waits for a value on ch. ok is false if ctx ends first or ch is
// closed.
func Receive[T any](ctx context.Context, ch <-chan T) (v T, ok bool) {
	select {
	case <-ctx.Done():
		return v, false
	case v, ok = <-ch:
		return v, ok
	}
}

// TryReceive takes a value from ch only if one is ready. ok is false if ch is
// empty or closed.
func TryReceive[T any](ch <-chan T) (v T, ok bool) {
	select {
	case v, ok = <-ch:
		return v, ok
	default:
		return v, false
	}
}

// Send delivers v on ch and reports whether it did before ctx ended.
func Send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- v:
		return true
	}
}
