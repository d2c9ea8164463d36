package pipeline

import "context"

// Iterator is the pull contract stream stages implement. Next returns
// (zero, false, nil) once the stream is exhausted. Terminals stop at
// the first error; an iterator that returned one is not pulled again.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	// Close releases whatever the iterator holds. Terminals call it
	// when the pull loop ends.
	Close() error
}

// Pipeline is a lazily assembled chain of stream stages. Building one
// does no work; a terminal opens a fresh iterator chain per run, so
// the same pipeline value can describe many sessions.
type Pipeline[T any] struct {
	open func(ctx context.Context) Iterator[T]
}

// From wraps an existing Iterator. The iterator is consumed by the
// first run; use FromFunc when the pipeline must be runnable more
// than once.
func From[T any](iter Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{open: func(context.Context) Iterator[T] { return iter }}
}

// FromSlice streams the elements of a slice in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{open: func(context.Context) Iterator[T] {
		return &sliceSource[T]{items: items}
	}}
}

// FromFunc builds the source iterator at run time, once per terminal
// call. The live dictation flow uses it to attach a fresh segment
// source to each session.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{open: fn}
}

// ForEach pulls the whole stream and hands every value to fn. The
// first error, whether from the stream or from fn, stops the run.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	iter := p.open(ctx)
	defer iter.Close()
	for {
		val, ok, err := iter.Next(ctx)
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

// Collect pulls the whole stream into a slice. On error it returns
// the values gathered before it alongside the error.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, p, func(_ context.Context, val T) error {
		out = append(out, val)
		return nil
	})
	return out, err
}

// Iter opens the iterator chain for callers that need manual pull
// control. The caller owns Close.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.open(ctx)
}

// item carries one value or one error across a stage boundary channel.
type item[T any] struct {
	val T
	ok  bool
	err error
}

// chanIter drains a channel fed by a pumping goroutine. Buffer builds
// one per run.
type chanIter[T any] struct {
	ch   <-chan item[T]
	stop func() error
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case r, open := <-it.ch:
		if !open {
			var zero T
			return zero, false, nil
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error {
	if it.stop != nil {
		return it.stop()
	}
	return nil
}

type sliceSource[T any] struct {
	items []T
	index int
}

func (it *sliceSource[T]) Next(context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceSource[T]) Close() error { return nil }
