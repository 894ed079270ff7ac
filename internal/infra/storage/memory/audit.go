package memory

import (
	"context"
	"sync"

	"staypay/internal/app/audit"
)

// AuditSink collects audit entries in memory for dev mode and tests.
type AuditSink struct {
	mu      sync.Mutex
	entries []audit.Entry
	// FailWith, when set, makes every Record call fail. Lets tests prove
	// audit failures never fail a transition.
	FailWith error
}

func NewAuditSink() *AuditSink {
	return &AuditSink{}
}

func (s *AuditSink) Record(ctx context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Recent lists stored entries for one entity, newest first.
func (s *AuditSink) Recent(_ context.Context, entityType, entityID string, limit int64) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []audit.Entry
	for i := len(s.entries) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		e := s.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *AuditSink) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

var _ audit.Recorder = (*AuditSink)(nil)
