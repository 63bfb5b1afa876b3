package store

import "context"

// HistoryEntry records one saved enhancement.  Entries carry no identity
// beyond their position and the collection is shared across all
// authenticated identities.
type HistoryEntry struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// History is an append-only ordered sequence with an explicit full clear.
type History struct {
	col *Collection[[]HistoryEntry]
}

// NewHistory opens (or creates) the history collection at path.
func NewHistory(path string) (*History, error) {
	col, err := NewCollection(path, func() []HistoryEntry {
		return []HistoryEntry{}
	})
	if err != nil {
		return nil, err
	}
	return &History{col: col}, nil
}

// List returns all entries in insertion order.
func (h *History) List(ctx context.Context) ([]HistoryEntry, error) {
	return h.col.Load(ctx)
}

// Append adds e to the end of the sequence.
func (h *History) Append(ctx context.Context, e HistoryEntry) error {
	return h.col.Update(ctx, func(entries []HistoryEntry) ([]HistoryEntry, error) {
		return append(entries, e), nil
	})
}

// Clear replaces the sequence with the empty one.
func (h *History) Clear(ctx context.Context) error {
	return h.col.Save(ctx, []HistoryEntry{})
}
