package audit

import (
	"fmt"
	"time"
)

// Filter selects journal entries. Zero fields match everything.
type Filter struct {
	Character string
	SwapID    string
	Since     time.Time
	Until     time.Time
}

func (f Filter) match(e Entry) bool {
	if f.Character != "" && !e.Involves(f.Character) {
		return false
	}
	if f.SwapID != "" && e.SwapID != f.SwapID {
		return false
	}
	if !f.Since.IsZero() && e.At.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.At.After(f.Until) {
		return false
	}
	return true
}

// Summary counts a timeline's entries.
type Summary struct {
	Total      int       `json:"total"`
	Executed   int       `json:"executed"`
	Reversed   int       `json:"reversed"`
	ZonesMoved int       `json:"zones_moved"`
	First      time.Time `json:"first"`
	Last       time.Time `json:"last"`
}

func (s *Summary) add(e Entry) {
	s.Total++
	switch e.Action {
	case ActionExecuted:
		s.Executed++
		s.ZonesMoved += len(e.Zones)
	case ActionReversed:
		s.Reversed++
	}
	if s.First.IsZero() {
		s.First = e.At
	}
	s.Last = e.At
}

// Timeline is the filtered journal in write order.
type Timeline struct {
	Character string  `json:"character,omitempty"`
	Entries   []Entry `json:"entries"`
	Summary   Summary `json:"summary"`
}

// Replay reads the journal and keeps the entries f matches. Undecodable
// lines are skipped; use Verify to find them.
func Replay(path string, f Filter) (*Timeline, error) {
	tl := &Timeline{Character: f.Character, Entries: []Entry{}}
	err := walk(path, func(ln line) error {
		if ln.err != nil || !f.match(ln.entry) {
			return nil
		}
		tl.Entries = append(tl.Entries, ln.entry)
		tl.Summary.add(ln.entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read audit journal: %w", err)
	}
	return tl, nil
}

// Tail returns the last n entries, oldest first. n <= 0 returns all.
func Tail(path string, n int) ([]Entry, error) {
	tl, err := Replay(path, Filter{})
	if err != nil {
		return nil, err
	}
	if n > 0 && len(tl.Entries) > n {
		return tl.Entries[len(tl.Entries)-n:], nil
	}
	return tl.Entries, nil
}
