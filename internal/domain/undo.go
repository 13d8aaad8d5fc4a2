package domain

import "time"

const (
	// MaxUndoEntries bounds the undo stack length.
	MaxUndoEntries = 5
	// UndoTTL is how long an undo entry stays usable.
	UndoTTL = 10 * time.Second
)

// UndoKind says which action produced an undo entry.
type UndoKind string

const (
	UndoClose   UndoKind = "close"
	UndoGroup   UndoKind = "group"
	UndoArchive UndoKind = "archive"
)

// UndoEntry records the resources touched by one destructive action.
type UndoEntry struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Kind      UndoKind           `json:"kind"`
	Snapshot  []ResourceSnapshot `json:"snapshot"`
}

// Clone copies the snapshot slice.
func (e UndoEntry) Clone() UndoEntry {
	out := e
	out.Snapshot = append([]ResourceSnapshot(nil), e.Snapshot...)
	return out
}

// Expired reports whether the entry is at least UndoTTL old at now.
func (e UndoEntry) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= UndoTTL
}

// BoundUndoStack drops expired entries first, then keeps the most recent
// MaxUndoEntries. The stack is ordered oldest first.
func BoundUndoStack(stack []UndoEntry, now time.Time) []UndoEntry {
	live := make([]UndoEntry, 0, len(stack))
	for _, e := range stack {
		if !e.Expired(now) {
			live = append(live, e)
		}
	}
	if len(live) > MaxUndoEntries {
		live = live[len(live)-MaxUndoEntries:]
	}
	return live
}
