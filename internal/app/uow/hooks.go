package uow

import (
	"context"
	"sync"
)

// AfterCommitHooks collects callbacks to run once the surrounding unit of
// work commits. Best-effort side effects (audit, logging) register here so
// they never describe a transition that later rolled back.
type AfterCommitHooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

func (h *AfterCommitHooks) Register(fn func(context.Context)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

func (h *AfterCommitHooks) Run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

type hooksKey struct{}

func ContextWithAfterCommitHooks(ctx context.Context, hooks *AfterCommitHooks) context.Context {
	return context.WithValue(ctx, hooksKey{}, hooks)
}

// AfterCommit registers fn against the hooks in context, or runs it
// immediately when no transactional boundary is present.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if fn == nil {
		return
	}
	if v := ctx.Value(hooksKey{}); v != nil {
		if hooks, ok := v.(*AfterCommitHooks); ok {
			hooks.Register(fn)
			return
		}
	}
	fn(ctx)
}

// RunAfterCommitHooks fires hooks registered in ctx; called by whoever
// owns the commit.
func RunAfterCommitHooks(ctx context.Context) {
	if v := ctx.Value(hooksKey{}); v != nil {
		if hooks, ok := v.(*AfterCommitHooks); ok {
			hooks.Run(ctx)
		}
	}
}
