package checkincode

import "time"

type CodeUsed struct {
	CodeID    CodeID
	BookingID string
	OwnerID   string
	At        time.Time
}

func (e CodeUsed) EventName() string     { return "checkincode.used" }
func (e CodeUsed) AggregateID() string   { return string(e.CodeID) }
func (e CodeUsed) OccurredAt() time.Time { return e.At }

type CodeVoided struct {
	CodeID    CodeID
	BookingID string
	Reason    string
	At        time.Time
}

func (e CodeVoided) EventName() string     { return "checkincode.voided" }
func (e CodeVoided) AggregateID() string   { return string(e.CodeID) }
func (e CodeVoided) OccurredAt() time.Time { return e.At }
