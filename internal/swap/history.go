package swap

import (
	"slices"
	"strings"

	"github.com/ppiankov/threadshift/internal/model"
)

// trimHistoryLocked drops the oldest records until the history fits the
// limit. Caller holds e.mu.
func (e *Engine) trimHistoryLocked() {
	limit := e.settings.HistoryLimit
	if limit <= 0 || len(e.history) <= limit {
		return
	}
	e.history = slices.Clone(e.history[len(e.history)-limit:])
}

// History returns a copy of the swap history, oldest first.
func (e *Engine) History() []model.SwapRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.SwapRecord, len(e.history))
	for i, r := range e.history {
		out[i] = r.Clone()
	}
	return out
}

// ActiveSwaps returns copies of the active swaps ordered by timestamp, then id.
func (e *Engine) ActiveSwaps() []model.SwapRecord {
	e.mu.Lock()
	out := make([]model.SwapRecord, 0, len(e.active))
	for _, ent := range e.active {
		out = append(out, ent.record.Clone())
	}
	e.mu.Unlock()

	slices.SortFunc(out, func(a, b model.SwapRecord) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Swap returns the history record for id, if it is still retained.
func (e *Engine) Swap(id string) (model.SwapRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ent, ok := e.active[id]; ok {
		return ent.record.Clone(), true
	}
	for _, r := range e.history {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return model.SwapRecord{}, false
}

// ClearHistory empties the history. Active swaps stay reversible.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	e.history = nil
	e.mu.Unlock()
}

// Participants returns the live characters of an active swap: the same
// pointers PerformSwap mutated and ReverseSwap will restore.
func (e *Engine) Participants(id string) (source, target *model.Character, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.active[id]
	if !ok {
		return nil, nil, false
	}
	return ent.source, ent.target, true
}
