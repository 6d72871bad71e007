package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/panjf2000/ants/v2"

	logx "github.com/manmitra-core/server/pkg/logger"
)

// errOverloaded is returned when every worker is busy.
var errOverloaded = errors.New("model worker pool overloaded")

type callResult struct {
	text string
	err  error
}

func newWorkerPool(size int) (*ants.Pool, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create model worker pool: %w", err)
	}
	return pool, nil
}

// dispatch runs fn on the pool and waits for it or for ctx, whichever ends
// first. A call still running when ctx ends is abandoned to its worker.
func dispatch(ctx context.Context, pool *ants.Pool, fn func(context.Context) (string, error)) (string, error) {
	done := make(chan callResult, 1)
	err := pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				logx.Error().Str("component", "gateway").Msgf("model call panic recovered: %v", r)
				done <- callResult{err: fmt.Errorf("model call panic: %v", r)}
			}
		}()
		text, err := fn(ctx)
		done <- callResult{text: text, err: err}
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			return "", errOverloaded
		}
		return "", fmt.Errorf("submit model call: %w", err)
	}

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
