// Package global
package global

import "context"

// Callable is registered with the cleaner and invoked on shutdown
type Callable interface {
	Invoke(ctx context.Context) error
}

type CallableFunc func(ctx context.Context) error

func (f CallableFunc) Invoke(ctx context.Context) error { return f(ctx) }
