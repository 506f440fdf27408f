package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
)

// Text renders the timeline as aligned columns followed by a summary line.
func (tl *Timeline) Text() string {
	who := tl.Character
	if who == "" {
		who = "all characters"
	}
	if len(tl.Entries) == 0 {
		return fmt.Sprintf("%s: no swaps recorded\n", who)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s to %s UTC\n\n", who,
		tl.Summary.First.Format("2006-01-02 15:04:05"), tl.Summary.Last.Format("15:04:05"))

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTIME\tACTION\tPAIR\tGARMENT\tZONES")
	for _, e := range tl.Entries {
		action := "swap"
		if e.Action == ActionReversed {
			action = "reverse"
		}
		zones := strings.Join(e.Zones, ",")
		if len(e.Skipped) > 0 {
			zones += " (skipped " + strings.Join(e.Skipped, ",") + ")"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s -> %s\t%s\t%s\n",
			e.Seq, e.At.Format("15:04:05"), action, e.Source, e.Target, e.GarmentRef, zones)
	}
	w.Flush()

	s := tl.Summary
	fmt.Fprintf(&b, "\n%d swaps, %d reversals, %d zones moved\n", s.Executed, s.Reversed, s.ZonesMoved)
	return b.String()
}

// JSON renders the timeline as indented JSON.
func (tl *Timeline) JSON() (string, error) {
	data, err := json.MarshalIndent(tl, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal timeline: %w", err)
	}
	return string(data), nil
}
