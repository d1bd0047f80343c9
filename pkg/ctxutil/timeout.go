package ctxutil

import (
	"context"
	"os"
	"os/signal"
	"time"
)

func TimeoutContext(ctx context.Context, duration time.Duration) context.Context {
	return cancelContext(context.WithTimeout(ctx, duration))
}

// SignalContext is canceled when one of the given signals is received
// (default: os.Interrupt).
func SignalContext(ctx context.Context, sigs ...os.Signal) context.Context {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}
	return cancelContext(signal.NotifyContext(ctx, sigs...))
}
