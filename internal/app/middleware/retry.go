package middleware

import (
	"context"
	"errors"

	"staypay/internal/app/commands"
	"staypay/internal/app/uow"
)

// RetryOnConflict re-dispatches a command whose transaction lost an
// optimistic-concurrency race. Placed outside Transaction, each retry runs
// in a fresh unit of work, so the handler re-reads current state; a
// transition another request already completed then resolves through the
// handler's already-done path instead of erroring.
func RetryOnConflict(attempts int) CommandMiddleware {
	if attempts < 1 {
		attempts = 1
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var lastErr error
			for attempt := 0; attempt < attempts; attempt++ {
				res, err := nextFn(ctx, cmd)
				if err == nil {
					return res, nil
				}
				if !errors.Is(err, uow.ErrConcurrentUpdate) {
					return nil, err
				}
				lastErr = err
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
			}
			return nil, lastErr
		})
	}
}
