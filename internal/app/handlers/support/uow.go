package support

import (
	"context"

	"staypay/internal/app/uow"
)

// BeginUnit reuses the unit of work from context when the middleware
// pipeline provided one, or starts a managed unit otherwise. The returned
// cleanup (nil when the unit is externally managed) rolls back unless the
// caller committed.
func BeginUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, context.Context, func(), bool, error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, false, nil
	}
	if factory == nil {
		return nil, ctx, nil, false, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, nil, false, err
	}
	execCtx := ctx
	if injector, ok := newUnit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	execCtx = uow.ContextWithAfterCommitHooks(execCtx, &uow.AfterCommitHooks{})
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, true, nil
}

// BeginReadOnlyUnit is BeginUnit for query handlers.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, execCtx, cleanup, _, err := BeginUnit(ctx, factory, uow.TxOptions{ReadOnly: true})
	return unit, execCtx, cleanup, err
}
