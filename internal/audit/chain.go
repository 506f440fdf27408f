package audit

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
)

// Genesis is the prev hash of the first entry.
var Genesis = "sha256:" + strings.Repeat("0", 64)

// Hash returns "sha256:<hex>" of a journal line without its newline.
func Hash(line []byte) string {
	sum := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// line is one raw journal line and its decoded entry. err is set when the
// line does not decode.
type line struct {
	n     int
	raw   []byte
	entry Entry
	err   error
}

// errStop ends a walk early without reporting an error.
var errStop = errors.New("stop")

// walk calls fn for every non-empty line of the journal at path. Lines of
// any length are read.
func walk(path string, fn func(line) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	n := 0
	for {
		raw, readErr := r.ReadBytes('\n')
		raw = bytes.TrimRight(raw, "\r\n")
		if len(raw) > 0 {
			n++
			l := line{n: n, raw: raw}
			l.err = json.Unmarshal(raw, &l.entry)
			if err := fn(l); err != nil {
				if errors.Is(err, errStop) {
					return nil
				}
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
