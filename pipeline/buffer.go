package pipeline

import "context"

// Buffer adds a buffered channel between pipeline stages, decoupling the
// production rate from the consumption rate. In the live flow it keeps
// the socket reader drained while an injection is in flight.
func Buffer[T any](p *Pipeline[T], size int) *Pipeline[T] {
	if size <= 0 {
		size = 1
	}
	return &Pipeline[T]{
		open: func(ctx context.Context) Iterator[T] {
			source := p.open(ctx)
			pumpCtx, cancel := context.WithCancel(ctx)
			ch := make(chan item[T], size)

			go func() {
				defer close(ch)
				for {
					val, ok, err := source.Next(pumpCtx)
					if err != nil {
						select {
						case ch <- item[T]{err: err}:
						case <-pumpCtx.Done():
						}
						return
					}
					if !ok {
						return
					}
					select {
					case ch <- item[T]{val: val, ok: true}:
					case <-pumpCtx.Done():
						return
					}
				}
			}()

			return &chanIter[T]{
				ch: ch,
				stop: func() error {
					cancel()
					return source.Close()
				},
			}
		},
	}
}
