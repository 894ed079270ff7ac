package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staypay/internal/app/audit"
	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	domaininvoice "staypay/internal/domain/invoice"
	"staypay/internal/domain/shared/money"
)

func TestBookingRepositoryDetectsLostWrite(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domainbooking.Booking{ID: "bk-1", State: domainbooking.StateConfirmed}))

	first, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)

	first.State = domainbooking.StateCheckedIn
	require.NoError(t, repo.Save(ctx, first))

	second.State = domainbooking.StateCanceled
	assert.ErrorIs(t, repo.Save(ctx, second), uow.ErrConcurrentUpdate)

	// The first writer's state survived.
	stored, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCheckedIn, stored.State)
}

func TestCodeRepositoryPrefersLiveCode(t *testing.T) {
	repo := NewCodeRepository()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	voided := domaincode.New("bk-1", now)
	require.NoError(t, voided.Void("reissued", now))
	require.NoError(t, repo.Save(ctx, voided))

	replacement := domaincode.New("bk-1", now.Add(time.Hour))
	require.NoError(t, repo.Save(ctx, replacement))

	got, err := repo.ByBookingID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, replacement.ID, got.ID)
	assert.Equal(t, domaincode.StateActive, got.State)

	byHash, err := repo.ByHash(ctx, replacement.Hash)
	require.NoError(t, err)
	assert.Equal(t, replacement.ID, byHash.ID)
}

func TestInvoiceRepositorySequenceAndUniqueness(t *testing.T) {
	repo := NewInvoiceRepository()
	ctx := context.Background()

	first, err := repo.NextID(ctx)
	require.NoError(t, err)
	second, err := repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	a := domaininvoice.NewDraft(domaininvoice.DraftParams{
		ID:        first,
		BookingID: "bk-1",
		OwnerID:   "own-1",
		Total:     money.Money{Amount: 1000, Currency: "NGN"},
		CreatedAt: time.Now(),
	})
	a.PaymentRef = "PAY-1-1"
	require.NoError(t, repo.Save(ctx, a))

	b := domaininvoice.NewDraft(domaininvoice.DraftParams{
		ID:        second,
		BookingID: "bk-2",
		OwnerID:   "own-1",
		Total:     money.Money{Amount: 1000, Currency: "NGN"},
		CreatedAt: time.Now(),
	})
	b.PaymentRef = "PAY-1-1"
	var dupErr *domaininvoice.DuplicateReferenceError
	require.ErrorAs(t, repo.Save(ctx, b), &dupErr)
	assert.Equal(t, "PAY-1-1", dupErr.Ref)

	got, err := repo.ByPaymentRef(ctx, "PAY-1-1")
	require.NoError(t, err)
	assert.Equal(t, first, got.ID)
}

func TestAuditSinkRecentFiltersAndOrders(t *testing.T) {
	sink := NewAuditSink()
	ctx := context.Background()
	for i, action := range []string{"a", "b", "c"} {
		require.NoError(t, sink.Record(ctx, auditEntry("booking", "bk-1", action, i)))
	}
	require.NoError(t, sink.Record(ctx, auditEntry("invoice", "7", "d", 3)))

	entries, err := sink.Recent(ctx, "booking", "bk-1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Action)
	assert.Equal(t, "b", entries[1].Action)
}

func auditEntry(entityType, entityID, action string, seq int) audit.Entry {
	return audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		At:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Minute),
	}
}
