package checkincode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"staypay/internal/domain/shared/events"
)

var (
	ErrCodeNotFound  = errors.New("checkincode: not found")
	ErrCodeNotActive = errors.New("checkincode: code is not active")
	ErrVoidReason    = errors.New("checkincode: void reason required")
)

type CodeID string

type CodeState string

const (
	StateActive CodeState = "ACTIVE"
	StateUsed   CodeState = "USED"
	StateVoid   CodeState = "VOID"
)

// Code is the single-use credential bound 1:1 to a booking. Once USED or
// VOID it never transitions again.
type Code struct {
	ID          CodeID
	BookingID   string
	Visible     string
	Hash        string
	State       CodeState
	GeneratedAt time.Time
	UsedAt      time.Time
	UsedByOwner string
	VoidedAt    time.Time
	VoidReason  string
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id CodeID) (*Code, error)
	ByBookingID(ctx context.Context, bookingID string) (*Code, error)
	ByHash(ctx context.Context, hash string) (*Code, error)
	Save(ctx context.Context, code *Code) error
}

// New issues an ACTIVE code for a booking. The visible form is what the
// guest presents at the desk; only its hash needs to be indexed.
func New(bookingID string, now time.Time) *Code {
	visible := newVisibleCode()
	return &Code{
		ID:          CodeID(uuid.NewString()),
		BookingID:   bookingID,
		Visible:     visible,
		Hash:        HashCode(visible),
		State:       StateActive,
		GeneratedAt: now.UTC(),
	}
}

// HashCode normalizes and hashes a visible code for lookup.
func HashCode(visible string) string {
	normalized := strings.ToUpper(strings.TrimSpace(visible))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// MarkUsed flips ACTIVE -> USED. Terminal states are immutable; callers
// are expected to have taken the already-done path at the booking level
// before reaching here.
func (c *Code) MarkUsed(usedByOwnerID string, now time.Time) error {
	if c.State != StateActive {
		return ErrCodeNotActive
	}
	c.State = StateUsed
	c.UsedAt = now.UTC()
	c.UsedByOwner = usedByOwnerID
	c.Record(CodeUsed{CodeID: c.ID, BookingID: c.BookingID, OwnerID: usedByOwnerID, At: c.UsedAt})
	return nil
}

// Void flips ACTIVE -> VOID, used by cancellation flows.
func (c *Code) Void(reason string, now time.Time) error {
	if c.State != StateActive {
		return ErrCodeNotActive
	}
	if strings.TrimSpace(reason) == "" {
		return ErrVoidReason
	}
	c.State = StateVoid
	c.VoidedAt = now.UTC()
	c.VoidReason = reason
	c.Record(CodeVoided{CodeID: c.ID, BookingID: c.BookingID, Reason: reason, At: c.VoidedAt})
	return nil
}

func newVisibleCode() string {
	// 8 chars from a uuid is plenty for a desk-presented code; the hash
	// plus booking binding carries the real uniqueness guarantee.
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:8]
}
