// Package audit durably records kernel panics (spec.md §7.4) and
// cleanup-protocol completions (spec.md §4.5 step 5). This is an
// audit trail of kernel events, never of message payloads, so it does
// not conflict with the "no message persistence across reboots"
// non-goal. Grounded on the teacher's repository-adapter split
// (framework/adapters/repository/{postgres,mongodb}.go): one fixed
// schema, two interchangeable backends.
package audit

import (
	"context"
	"time"
)

// Kind names the category of an audited event.
type Kind string

const (
	KindPanic          Kind = "panic"
	KindCleanupComplete Kind = "cleanup_complete"
)

// Record is the one logical shape both backends persist.
type Record struct {
	Timestamp time.Time
	Kind      Kind
	Victim    int32
	RequestID string
	Status    string
	Reason    string
}

// Store persists and retrieves audit records.
type Store interface {
	Append(ctx context.Context, r Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
