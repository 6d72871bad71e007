package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	logx "github.com/manmitra-core/server/pkg/logger"
)

type nodeStartKey struct{}

// newLambdaHandler logs each graph node with its latency.
func newLambdaHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			return context.WithValue(ctx, nodeStartKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			logx.Debug().
				Str("component", "node").
				Str("node", runName(info)).
				Dur("elapsed", elapsed(ctx)).
				Msg("node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().
				Err(err).
				Str("component", "node").
				Str("node", runName(info)).
				Dur("elapsed", elapsed(ctx)).
				Msg("node failed")
			return ctx
		}).
		Build()
}

func elapsed(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(nodeStartKey{}).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}
