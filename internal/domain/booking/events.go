package booking

import "time"

type CheckInConfirmed struct {
	BookingID  BookingID
	PropertyID string
	At         time.Time
}

func (e CheckInConfirmed) EventName() string     { return "booking.checked_in" }
func (e CheckInConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e CheckInConfirmed) OccurredAt() time.Time { return e.At }

type CheckOutConfirmed struct {
	BookingID  BookingID
	PropertyID string
	Rating     int
	At         time.Time
}

func (e CheckOutConfirmed) EventName() string     { return "booking.checked_out" }
func (e CheckOutConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e CheckOutConfirmed) OccurredAt() time.Time { return e.At }

type BookingCanceled struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingCanceled) EventName() string     { return "booking.canceled" }
func (e BookingCanceled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCanceled) OccurredAt() time.Time { return e.At }
