package game

import "sync"

// UndoHistory is a bounded LIFO stack of session snapshots. When the cap
// is reached the oldest snapshot is dropped, so undo depth is limited but
// a long game never grows without bound.
type UndoHistory struct {
	mu        sync.Mutex
	snapshots []*SessionState
	limit     int
}

// NewUndoHistory creates an undo history with the given snapshot limit.
func NewUndoHistory(limit int) *UndoHistory {
	if limit <= 0 {
		limit = MaxUndoHistory
	}
	return &UndoHistory{limit: limit}
}

// Push records a snapshot, dropping the oldest when full.
func (h *UndoHistory) Push(snapshot *SessionState) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.snapshots) >= h.limit {
		copy(h.snapshots, h.snapshots[1:])
		h.snapshots = h.snapshots[:len(h.snapshots)-1]
	}
	h.snapshots = append(h.snapshots, snapshot)
}

// Pop removes and returns the most recent snapshot, or nil when empty.
func (h *UndoHistory) Pop() *SessionState {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.snapshots) == 0 {
		return nil
	}
	idx := len(h.snapshots) - 1
	snapshot := h.snapshots[idx]
	h.snapshots = h.snapshots[:idx]
	return snapshot
}

// Size returns the number of stored snapshots.
func (h *UndoHistory) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.snapshots)
}

// Clear discards all snapshots.
func (h *UndoHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots = nil
}
