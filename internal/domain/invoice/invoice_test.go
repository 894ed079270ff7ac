package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staypay/internal/domain/settlement"
	"staypay/internal/domain/shared/money"
)

var now = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func draft(t *testing.T) *Invoice {
	t.Helper()
	breakdown, err := settlement.Compute(money.Must(110000, "TZS"), money.Must(10000, "TZS"), 10, 5)
	require.NoError(t, err)
	return NewDraft(DraftParams{
		ID:            42,
		BookingID:     "bk-1",
		PropertyID:    "prop-1",
		OwnerID:       "owner-1",
		Track:         TrackCustomer,
		Total:         money.Must(110000, "TZS"),
		TransportFare: money.Must(10000, "TZS"),
		Breakdown:     breakdown,
		CreatedAt:     now,
	})
}

func approved(t *testing.T) *Invoice {
	t.Helper()
	inv := draft(t)
	mutated, err := inv.Submit(now)
	require.NoError(t, err)
	require.True(t, mutated)
	require.NoError(t, inv.Verify("checked against booking", now))
	require.NoError(t, inv.Approve(inv.Breakdown, Number("INV", now, inv.ID), PaymentRef("PAY", inv.ID, now), now))
	return inv
}

func TestSubmit_IsIdempotentPastDraft(t *testing.T) {
	inv := draft(t)

	mutated, err := inv.Submit(now)
	require.NoError(t, err)
	assert.True(t, mutated)
	assert.Equal(t, StateRequested, inv.State)

	again, err := inv.Submit(now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, again)
	assert.Equal(t, StateRequested, inv.State)
	assert.Equal(t, now, inv.IssuedAt)
}

func TestVerify_OnlyFromRequested(t *testing.T) {
	inv := draft(t)
	assert.ErrorIs(t, inv.Verify("too early", now), ErrInvalidState)

	_, err := inv.Submit(now)
	require.NoError(t, err)
	require.NoError(t, inv.Verify("ok", now))
	assert.Equal(t, StateVerified, inv.State)
}

func TestApprove_AssignsReferencesOnce(t *testing.T) {
	inv := approved(t)

	assert.Equal(t, "INV-202604-0000042", inv.Number)
	assert.NotEmpty(t, inv.PaymentRef)

	// A retried approval keeps the original references.
	later := now.AddDate(0, 2, 0)
	require.NoError(t, inv.Approve(inv.Breakdown, Number("INV", later, inv.ID), PaymentRef("PAY", inv.ID, later), later))
	assert.Equal(t, "INV-202604-0000042", inv.Number)
	assert.Equal(t, PaymentRef("PAY", inv.ID, now), inv.PaymentRef)
}

func TestApprove_FromDraftRejected(t *testing.T) {
	inv := draft(t)
	assert.ErrorIs(t, inv.Approve(inv.Breakdown, "n", "r", now), ErrInvalidState)
}

func TestApprove_PaidIsTerminal(t *testing.T) {
	inv := approved(t)
	require.NoError(t, inv.MarkPaid("BANK", "ext-1", Number("RCT", now, inv.ID), now))

	assert.ErrorIs(t, inv.Approve(inv.Breakdown, "n", "r", now), ErrAlreadyPaid)
}

func TestMarkPaid(t *testing.T) {
	inv := approved(t)

	require.NoError(t, inv.MarkPaid("MOBILE_MONEY", "mm-900", Number("RCT", now, inv.ID), now))

	assert.Equal(t, StatePaid, inv.State)
	assert.Equal(t, "RCT-202604-0000042", inv.ReceiptNumber)

	receipt := inv.Receipt()
	assert.Equal(t, inv.ReceiptNumber, receipt.ReceiptNumber)
	assert.Equal(t, inv.Number, receipt.InvoiceNumber)
	assert.Equal(t, "bk-1", receipt.BookingID)
	assert.Equal(t, inv.Breakdown.NetPayable, receipt.Amount)
	assert.Equal(t, now, receipt.IssuedAt)
}

func TestMarkPaid_AlreadyPaidKeepsReceipt(t *testing.T) {
	inv := approved(t)
	require.NoError(t, inv.MarkPaid("BANK", "ext-1", "RCT-202604-0000042", now))

	err := inv.MarkPaid("BANK", "ext-2", "RCT-999999-0000001", now.Add(time.Hour))

	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, "RCT-202604-0000042", inv.ReceiptNumber)
	assert.Equal(t, "ext-1", inv.ExternalRef)
}

func TestReject(t *testing.T) {
	inv := draft(t)
	_, err := inv.Submit(now)
	require.NoError(t, err)

	assert.ErrorIs(t, inv.Reject(nil, now), ErrRejectReasons)
	require.NoError(t, inv.Reject([]string{"amount mismatch"}, now))
	assert.Equal(t, StateRejected, inv.State)

	assert.ErrorIs(t, inv.Reject([]string{"again"}, now), ErrInvalidState)
}

func TestReject_PaidIsTerminal(t *testing.T) {
	inv := approved(t)
	require.NoError(t, inv.MarkPaid("BANK", "ext", "rct", now))
	assert.ErrorIs(t, inv.Reject([]string{"late"}, now), ErrAlreadyPaid)
}

func TestNumber_DeterministicAndDistinct(t *testing.T) {
	issued := time.Date(2026, 4, 15, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, Number("INV", issued, 7), Number("INV", issued, 7))
	assert.Equal(t, "INV-202604-0000007", Number("INV", issued, 7))
	assert.Equal(t, "CLM-202604-0000007", Number("CLM", issued, 7))

	// Distinct ids never collide regardless of issuance timing.
	otherMonth := issued.AddDate(0, 3, 0)
	assert.NotEqual(t, Number("INV", issued, 7), Number("INV", issued, 8))
	assert.NotEqual(t, Number("INV", issued, 7), Number("INV", otherMonth, 8))
}

func TestPaymentRef(t *testing.T) {
	at := time.Unix(1770000000, 0).UTC()
	assert.Equal(t, "PAY-42-1770000000", PaymentRef("PAY", 42, at))
}
