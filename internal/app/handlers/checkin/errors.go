package checkin

import "errors"

// ErrNotEligible covers transitions whose eligibility preconditions are
// unmet: inactive code, outside the validation window, missing rating.
var ErrNotEligible = errors.New("checkin: not eligible")
