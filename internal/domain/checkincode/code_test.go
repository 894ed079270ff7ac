package checkincode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func TestNew_IssuesActiveCode(t *testing.T) {
	code := New("bk-1", testNow)

	assert.Equal(t, StateActive, code.State)
	assert.Equal(t, "bk-1", code.BookingID)
	assert.Len(t, code.Visible, 8)
	assert.Equal(t, HashCode(code.Visible), code.Hash)
	assert.Equal(t, testNow, code.GeneratedAt)
}

func TestHashCode_NormalizesInput(t *testing.T) {
	assert.Equal(t, HashCode("ab12cd34"), HashCode("  AB12CD34 "))
}

func TestMarkUsed(t *testing.T) {
	code := New("bk-1", testNow)

	require.NoError(t, code.MarkUsed("owner-1", testNow.Add(time.Hour)))

	assert.Equal(t, StateUsed, code.State)
	assert.Equal(t, "owner-1", code.UsedByOwner)
	assert.Equal(t, testNow.Add(time.Hour), code.UsedAt)
	require.Len(t, code.PendingEvents(), 1)
	assert.Equal(t, "checkincode.used", code.PendingEvents()[0].EventName())
}

func TestMarkUsed_TerminalStatesAreImmutable(t *testing.T) {
	used := New("bk-1", testNow)
	require.NoError(t, used.MarkUsed("owner-1", testNow))
	assert.ErrorIs(t, used.MarkUsed("owner-2", testNow), ErrCodeNotActive)
	assert.Equal(t, "owner-1", used.UsedByOwner)

	voided := New("bk-2", testNow)
	require.NoError(t, voided.Void("booking cancelled", testNow))
	assert.ErrorIs(t, voided.MarkUsed("owner-1", testNow), ErrCodeNotActive)
	assert.ErrorIs(t, voided.Void("again", testNow), ErrCodeNotActive)
	assert.Equal(t, StateVoid, voided.State)
}

func TestVoid_RequiresReason(t *testing.T) {
	code := New("bk-1", testNow)
	assert.ErrorIs(t, code.Void("  ", testNow), ErrVoidReason)
	assert.Equal(t, StateActive, code.State)
}

func TestClassifyWindow(t *testing.T) {
	checkIn := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	cases := []struct {
		name        string
		now         time.Time
		phase       WindowPhase
		canValidate bool
	}{
		{"day before", checkIn.AddDate(0, 0, -1), PhaseBeforeCheckIn, false},
		{"at check-in", checkIn, PhaseInWindow, true},
		{"mid stay", checkIn.AddDate(0, 0, 1), PhaseInWindow, true},
		{"at check-out", checkOut, PhaseAfterCheckOut, false},
		{"day after", checkIn.AddDate(0, 0, 3), PhaseAfterCheckOut, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyWindow(checkIn, checkOut, tc.now)
			assert.Equal(t, tc.phase, got.Phase)
			assert.Equal(t, tc.canValidate, got.CanValidate)
			if !tc.canValidate {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestClassifyWindow_InvalidInputFailsSafe(t *testing.T) {
	got := ClassifyWindow(time.Time{}, time.Time{}, testNow)
	assert.Equal(t, PhaseBeforeCheckIn, got.Phase)
	assert.False(t, got.CanValidate)

	inverted := ClassifyWindow(testNow, testNow.AddDate(0, 0, -2), testNow)
	assert.Equal(t, PhaseBeforeCheckIn, inverted.Phase)
	assert.False(t, inverted.CanValidate)
}
