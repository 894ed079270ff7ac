package invoice

import (
	"fmt"
	"time"
)

// Number formats an invoice or receipt reference as
// {PREFIX}-{YYYYMM}-{id zero-padded to 7 digits}. The id is the record's
// own immutable primary key, so distinct records can never collide and no
// sequence-allocation coordination is needed.
func Number(prefix string, issuedAt time.Time, id int64) string {
	return fmt.Sprintf("%s-%s-%07d", prefix, issuedAt.UTC().Format("200601"), id)
}

// PaymentRef formats the stable settlement reference as
// {PREFIX}-{id}-{unix timestamp}. Persisted once under a unique
// constraint; never recomputed after assignment.
func PaymentRef(prefix string, id int64, at time.Time) string {
	return fmt.Sprintf("%s-%d-%d", prefix, id, at.UTC().Unix())
}
