package invoice

import (
	"strconv"
	"time"

	"staypay/internal/domain/shared/money"
)

type InvoiceRequested struct {
	InvoiceID int64
	BookingID string
	OwnerID   string
	At        time.Time
}

func (e InvoiceRequested) EventName() string     { return "invoice.requested" }
func (e InvoiceRequested) AggregateID() string   { return strconv.FormatInt(e.InvoiceID, 10) }
func (e InvoiceRequested) OccurredAt() time.Time { return e.At }

type InvoiceVerified struct {
	InvoiceID int64
	BookingID string
	At        time.Time
}

func (e InvoiceVerified) EventName() string     { return "invoice.verified" }
func (e InvoiceVerified) AggregateID() string   { return strconv.FormatInt(e.InvoiceID, 10) }
func (e InvoiceVerified) OccurredAt() time.Time { return e.At }

type InvoiceApproved struct {
	InvoiceID  int64
	BookingID  string
	OwnerID    string
	Number     string
	NetPayable money.Money
	At         time.Time
}

func (e InvoiceApproved) EventName() string     { return "invoice.approved" }
func (e InvoiceApproved) AggregateID() string   { return strconv.FormatInt(e.InvoiceID, 10) }
func (e InvoiceApproved) OccurredAt() time.Time { return e.At }

type InvoiceRejected struct {
	InvoiceID int64
	BookingID string
	Reasons   []string
	At        time.Time
}

func (e InvoiceRejected) EventName() string     { return "invoice.rejected" }
func (e InvoiceRejected) AggregateID() string   { return strconv.FormatInt(e.InvoiceID, 10) }
func (e InvoiceRejected) OccurredAt() time.Time { return e.At }

type InvoicePaid struct {
	InvoiceID     int64
	BookingID     string
	OwnerID       string
	ReceiptNumber string
	Amount        money.Money
	At            time.Time
}

func (e InvoicePaid) EventName() string     { return "invoice.paid" }
func (e InvoicePaid) AggregateID() string   { return strconv.FormatInt(e.InvoiceID, 10) }
func (e InvoicePaid) OccurredAt() time.Time { return e.At }
