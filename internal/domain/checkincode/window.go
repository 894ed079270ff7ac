package checkincode

import (
	"time"

	"staypay/internal/domain/shared/daterange"
)

type WindowPhase string

const (
	PhaseBeforeCheckIn WindowPhase = "BEFORE_CHECKIN"
	PhaseInWindow      WindowPhase = "IN_WINDOW"
	PhaseAfterCheckOut WindowPhase = "AFTER_CHECKOUT"
)

// WindowAssessment classifies "now" against a booking's stay window.
type WindowAssessment struct {
	Phase       WindowPhase `json:"phase"`
	CanValidate bool        `json:"can_validate"`
	Reason      string      `json:"reason,omitempty"`
}

// ClassifyWindow gates check-in on the stay window [checkIn, checkOut).
// A malformed window fails safe: it reads as before-check-in and blocks
// validation rather than letting a bad record through.
func ClassifyWindow(checkIn, checkOut, now time.Time) WindowAssessment {
	dr := daterange.DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return WindowAssessment{
			Phase:       PhaseBeforeCheckIn,
			CanValidate: false,
			Reason:      "stay window is invalid",
		}
	}
	now = now.UTC()
	switch {
	case now.Before(dr.CheckIn):
		return WindowAssessment{
			Phase:       PhaseBeforeCheckIn,
			CanValidate: false,
			Reason:      "stay has not started yet",
		}
	case dr.ContainsDate(now):
		return WindowAssessment{Phase: PhaseInWindow, CanValidate: true}
	default:
		return WindowAssessment{
			Phase:       PhaseAfterCheckOut,
			CanValidate: false,
			Reason:      "stay window has already ended",
		}
	}
}
