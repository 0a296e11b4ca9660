package transform

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// DefaultConcurrency bounds how many transform runs execute at once.
const DefaultConcurrency = 10

// PanicError wraps a panic recovered inside a pooled transform run.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Pool runs functions concurrently under a semaphore. Panics in pooled
// functions are recovered and surfaced as PanicError so one misbehaving
// transform cannot take down the process.
type Pool struct {
	semaphore chan struct{}
}

// NewPool creates a pool with the given concurrency limit. Zero or negative
// means DefaultConcurrency.
func NewPool(maxConcurrency int) *Pool {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}
	return &Pool{semaphore: make(chan struct{}, maxConcurrency)}
}

// Run executes the functions concurrently and returns one error slot per
// function. Functions not yet holding a semaphore slot when the context is
// cancelled report the context error without running.
func (p *Pool) Run(ctx context.Context, functions ...func() error) []error {
	if len(functions) == 0 {
		return nil
	}

	results := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() error) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					stack := string(debug.Stack())
					slog.Error("recovered from panic in transform pool", "panic", r, "stack", stack)
					results[index] = &PanicError{Value: r, StackTrace: stack}
				}
			}()

			select {
			case p.semaphore <- struct{}{}:
				defer func() { <-p.semaphore }()
			case <-ctx.Done():
				results[index] = ctx.Err()
				return
			}

			results[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return results
}

// Gather runs functions concurrently and collects their values alongside
// their errors, index-aligned with the input.
func Gather[T any](ctx context.Context, maxConcurrency int, functions ...func() (T, error)) ([]T, []error) {
	if len(functions) == 0 {
		return nil, nil
	}

	pool := NewPool(maxConcurrency)
	values := make([]T, len(functions))
	wrapped := make([]func() error, len(functions))
	for i, fn := range functions {
		i, fn := i, fn
		wrapped[i] = func() error {
			v, err := fn()
			values[i] = v
			return err
		}
	}
	return values, pool.Run(ctx, wrapped...)
}
