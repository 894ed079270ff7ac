package audit

import (
	"context"
	"log/slog"
	"time"
)

// Entry captures the before/after of a state transition for the audit trail.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	Before     string
	After      string
	ActorID    string
	Details    map[string]any
	At         time.Time
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// BestEffort records an entry and swallows failures: an audit write must
// never fail or roll back the transition it describes. Failures go to the
// logger only.
func BestEffort(ctx context.Context, rec Recorder, logger *slog.Logger, entry Entry) {
	if rec == nil {
		return
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	if err := rec.Record(ctx, entry); err != nil && logger != nil {
		logger.Warn("audit write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"error", err,
		)
	}
}
