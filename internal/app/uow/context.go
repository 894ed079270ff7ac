package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork stashes the transaction's unit so handlers deeper
// in the middleware chain join it instead of opening their own. Every
// multi-entity transition (code flip + booking flip, reference assignment
// + status change) relies on this sharing for its atomicity.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext returns the stashed unit, if any. Handlers that find none
// begin and commit their own (see the support package).
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}
