package seq

import "context"

// Iterator provides pull-based sequential access to a finite stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromSlice returns an iterator over items.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// Empty returns an exhausted iterator.
func Empty[T any]() Iterator[T] {
	return &sliceIter[T]{}
}

// Fail returns an iterator whose first Next reports err.
func Fail[T any](err error) Iterator[T] {
	return &funcIter[T]{next: func(context.Context) (T, bool, error) {
		var zero T
		return zero, false, err
	}}
}

// FromFunc returns an iterator driven by next. The iterator stops after next
// reports exhaustion or an error and never calls it again. closer may be nil.
func FromFunc[T any](next func(ctx context.Context) (T, bool, error), closer func() error) Iterator[T] {
	return &funcIter[T]{next: next, closer: closer}
}

// Collect drains the iterator into a slice and closes it. Cancellation is
// checked before every pull.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	defer it.Close()
	var result []T
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		val, ok, err := it.Next(ctx)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, nil
		}
		result = append(result, val)
	}
}

// ForEach pulls every value and passes it to fn, stopping at the first error.
func ForEach[T any](ctx context.Context, it Iterator[T], fn func(context.Context, T) error) error {
	defer it.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(ctx, val); err != nil {
			return err
		}
	}
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type funcIter[T any] struct {
	next   func(context.Context) (T, bool, error)
	closer func() error
	done   bool
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	val, ok, err := it.next(ctx)
	if err != nil || !ok {
		it.done = true
		return zero, false, err
	}
	return val, true, nil
}

func (it *funcIter[T]) Close() error {
	it.done = true
	if it.closer != nil {
		return it.closer()
	}
	return nil
}
