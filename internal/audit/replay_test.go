package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/threadshift/internal/model"
)

// writeJournal records: alice->bob chest+waist (legs skipped), a reversal
// of it, then carol->alice hands.
func writeJournal(t *testing.T) string {
	t.Helper()
	l, path := openTestLog(t)

	rec := record("s1", "alice", "bob", "char_alice.05001", "chest", "waist")
	rec.SkippedZones = []string{"legs"}
	l.RecordSwap(ActionExecuted, rec)
	rec.Status = model.SwapReversed
	l.RecordSwap(ActionReversed, rec)
	l.RecordSwap(ActionExecuted, record("s2", "carol", "alice", "char_carol.06001", "hands"))
	return path
}

func TestReplayAll(t *testing.T) {
	tl, err := Replay(writeJournal(t), Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(tl.Entries))
	}
	s := tl.Summary
	if s.Executed != 2 || s.Reversed != 1 || s.ZonesMoved != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
	if !s.First.Equal(base) || !s.Last.Equal(base.Add(2*time.Second)) {
		t.Errorf("unexpected range %v - %v", s.First, s.Last)
	}
}

func TestReplayFilters(t *testing.T) {
	path := writeJournal(t)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"character as source or target", Filter{Character: "alice"}, 3},
		{"character only in one swap", Filter{Character: "bob"}, 2},
		{"unknown character", Filter{Character: "dave"}, 0},
		{"swap id", Filter{SwapID: "s2"}, 1},
		{"since", Filter{Since: base.Add(time.Second)}, 2},
		{"until", Filter{Until: base}, 1},
		{"window", Filter{Since: base.Add(time.Second), Until: base.Add(time.Second)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, err := Replay(path, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(tl.Entries) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(tl.Entries))
			}
		})
	}
}

func TestReplaySkipsUndecodableLines(t *testing.T) {
	path := writeJournal(t)
	lines := readLines(t, path)
	writeLines(t, path, append([][]byte{[]byte("garbage")}, lines...))

	tl, err := Replay(path, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(tl.Entries))
	}
}

func TestReplayMissingFile(t *testing.T) {
	if _, err := Replay("/nonexistent/audit.jsonl", Filter{}); err == nil {
		t.Error("expected error for missing journal")
	}
}

func TestTail(t *testing.T) {
	path := writeJournal(t)

	last, err := Tail(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 2 || last[0].Seq != 2 || last[1].Seq != 3 {
		t.Errorf("unexpected tail %+v", last)
	}

	all, _ := Tail(path, 0)
	if len(all) != 3 {
		t.Errorf("expected all 3 entries, got %d", len(all))
	}
}

func TestTimelineText(t *testing.T) {
	tl, err := Replay(writeJournal(t), Filter{Character: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	out := tl.Text()

	for _, want := range []string{
		"alice: 2026-03-01 14:00:00 to 14:00:02 UTC",
		"SEQ", "reverse", "alice -> bob", "char_alice.05001",
		"chest,waist (skipped legs)",
		"2 swaps, 1 reversals, 3 zones moved",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in timeline:\n%s", want, out)
		}
	}
}

func TestTimelineTextEmpty(t *testing.T) {
	tl, _ := Replay(writeJournal(t), Filter{Character: "dave"})
	if got := tl.Text(); got != "dave: no swaps recorded\n" {
		t.Errorf("unexpected empty timeline %q", got)
	}
	tl.Character = ""
	if got := tl.Text(); !strings.HasPrefix(got, "all characters") {
		t.Errorf("unexpected label %q", got)
	}
}

func TestTimelineJSON(t *testing.T) {
	tl, _ := Replay(writeJournal(t), Filter{SwapID: "s2"})
	out, err := tl.JSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"swap_id": "s2"`, `"executed": 1`, `"garment_ref": "char_carol.06001"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in JSON:\n%s", want, out)
		}
	}
}
