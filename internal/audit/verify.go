package audit

import "fmt"

// Report is the outcome of Verify.
type Report struct {
	Intact   bool   `json:"intact"`
	Entries  int    `json:"entries"`
	BrokenAt int    `json:"broken_at,omitempty"` // 1-based line number
	Problem  string `json:"problem,omitempty"`
}

// Verify walks the journal and checks that every line decodes, links to
// the hash of the line before it and continues the sequence. It stops at
// the first broken line.
func Verify(path string) Report {
	var rep Report
	prev := Genesis

	err := walk(path, func(ln line) error {
		switch {
		case ln.err != nil:
			rep.Problem = fmt.Sprintf("undecodable entry: %v", ln.err)
		case ln.entry.Prev != prev:
			rep.Problem = fmt.Sprintf("prev hash %s does not match %s", ln.entry.Prev, prev)
		case ln.entry.Seq != ln.n:
			rep.Problem = fmt.Sprintf("sequence %d where %d was expected", ln.entry.Seq, ln.n)
		default:
			prev = Hash(ln.raw)
			rep.Entries = ln.n
			return nil
		}
		rep.BrokenAt = ln.n
		return errStop
	})
	if err != nil {
		rep.Problem = err.Error()
		return rep
	}
	rep.Intact = rep.Problem == ""
	return rep
}
