package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staypay/internal/app/commands"
	"staypay/internal/app/uow"
)

type noteCommand struct {
	KeyV  string
	IdemV string
}

func (c noteCommand) Key() string { return c.KeyV }

func (c noteCommand) IdempotencyKey() string { return c.IdemV }

func (c noteCommand) ResultPrototype() any { return &noteResult{} }

type noteResult struct {
	Value string `json:"value"`
}

type stubStore struct {
	records map[string]IdempotencyRecord
}

func newStubStore() *stubStore {
	return &stubStore{records: make(map[string]IdempotencyRecord)}
}

func (s *stubStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *stubStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.records[rec.Key] = rec
	return nil
}

func TestRetryOnConflictRedispatches(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		if calls < 3 {
			return nil, uow.ErrConcurrentUpdate
		}
		return &noteResult{Value: "done"}, nil
	})

	chained := ChainCommands(bus, RetryOnConflict(3))
	res, err := chained.Dispatch(context.Background(), noteCommand{KeyV: "cmd.test"})
	require.NoError(t, err)
	assert.Equal(t, "done", res.(*noteResult).Value)
	assert.Equal(t, 3, calls)
}

func TestRetryOnConflictGivesUpAfterBudget(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, uow.ErrConcurrentUpdate
	})

	chained := ChainCommands(bus, RetryOnConflict(2))
	_, err := chained.Dispatch(context.Background(), noteCommand{KeyV: "cmd.test"})
	assert.ErrorIs(t, err, uow.ErrConcurrentUpdate)
	assert.Equal(t, 2, calls)
}

func TestRetryOnConflictPassesOtherErrorsThrough(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	boom := errors.New("boom")
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, boom
	})

	chained := ChainCommands(bus, RetryOnConflict(5))
	_, err := chained.Dispatch(context.Background(), noteCommand{KeyV: "cmd.test"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return &noteResult{Value: "first"}, nil
	})

	store := newStubStore()
	chained := ChainCommands(bus, Idempotency(store, nil))

	cmd := noteCommand{KeyV: "cmd.test", IdemV: "idem-1"}
	first, err := chained.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	replay, err := chained.Dispatch(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.(*noteResult).Value, replay.(*noteResult).Value)
}

func TestIdempotencyReplaysStoredError(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, errors.New("rejected")
	})

	store := newStubStore()
	chained := ChainCommands(bus, Idempotency(store, nil))

	cmd := noteCommand{KeyV: "cmd.test", IdemV: "idem-1"}
	_, err := chained.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "rejected")
	_, err = chained.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "rejected")
	assert.Equal(t, 1, calls)
}

func TestIdempotencyDoesNotCacheConflicts(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		if calls == 1 {
			return nil, uow.ErrConcurrentUpdate
		}
		return &noteResult{Value: "settled"}, nil
	})

	store := newStubStore()
	chained := ChainCommands(bus, RetryOnConflict(3), Idempotency(store, nil))

	cmd := noteCommand{KeyV: "cmd.test", IdemV: "idem-1"}
	res, err := chained.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "settled", res.(*noteResult).Value)
	assert.Equal(t, 2, calls, "retry must reach the handler, not a cached conflict")

	replay, err := chained.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "settled", replay.(*noteResult).Value)
	assert.Equal(t, 2, calls, "replay must come from the store")
}

func TestIdempotencyKeepsConflictIdentity(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, uow.ErrConcurrentUpdate
	})

	store := newStubStore()
	chained := ChainCommands(bus, RetryOnConflict(2), Idempotency(store, nil))

	cmd := noteCommand{KeyV: "cmd.test", IdemV: "idem-1"}
	_, err := chained.Dispatch(context.Background(), cmd)
	assert.ErrorIs(t, err, uow.ErrConcurrentUpdate)
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.records, "exhausted conflicts must not poison the key")
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return &noteResult{Value: "n"}, nil
	})

	chained := ChainCommands(bus, Idempotency(newStubStore(), nil))
	for i := 0; i < 2; i++ {
		_, err := chained.Dispatch(context.Background(), noteCommand{KeyV: "cmd.test"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

type trackingUnit struct {
	uow.UnitOfWork
	committed  bool
	rolledBack bool
}

func (u *trackingUnit) Commit(context.Context) error {
	u.committed = true
	return nil
}

func (u *trackingUnit) Rollback(context.Context) error {
	u.rolledBack = true
	return nil
}

type trackingFactory struct {
	last *trackingUnit
}

func (f *trackingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	f.last = &trackingUnit{}
	return f.last, nil
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	bus := commands.NewInMemoryBus()
	hookRan := false
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		_, ok := uow.FromContext(ctx)
		assert.True(t, ok, "unit must travel in context")
		uow.AfterCommit(ctx, func(context.Context) { hookRan = true })
		assert.False(t, hookRan, "hook must wait for commit")
		return &noteResult{Value: "ok"}, nil
	})

	factory := &trackingFactory{}
	chained := ChainCommands(bus, Transaction(factory, nil))
	_, err := chained.Dispatch(context.Background(), noteCommand{KeyV: "cmd.test"})
	require.NoError(t, err)
	assert.True(t, factory.last.committed)
	assert.False(t, factory.last.rolledBack)
	assert.True(t, hookRan)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	bus := commands.NewInMemoryBus()
	hookRan := false
	bus.RegisterRaw("cmd.test", func(ctx context.Context, cmd commands.Command) (any, error) {
		uow.AfterCommit(ctx, func(context.Context) { hookRan = true })
		return nil, errors.New("handler failed")
	})

	factory := &trackingFactory{}
	chained := ChainCommands(bus, Transaction(factory, nil))
	_, err := chained.Dispatch(context.Background(), noteCommand{KeyV: "cmd.test"})
	require.Error(t, err)
	assert.False(t, factory.last.committed)
	assert.True(t, factory.last.rolledBack)
	assert.False(t, hookRan, "after-commit hooks must not run on rollback")
}
