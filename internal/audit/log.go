package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/threadshift/internal/model"
)

// Option configures a Log.
type Option func(*Log)

// WithClock overrides time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// Log appends entries to a journal file. Safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
	now  func() time.Time
	head string // hash of the last line written
	seq  int
}

// Open opens or creates the journal at path and resumes its chain.
func Open(path string, opts ...Option) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	l := &Log{path: path, now: time.Now, head: Genesis}
	for _, o := range opts {
		o(l)
	}

	err := walk(path, func(ln line) error {
		l.head = Hash(ln.raw)
		if ln.err == nil {
			l.seq = ln.entry.Seq
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("audit: read journal: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open journal: %w", err)
	}
	l.file = f
	return l, nil
}

// Append stamps e with the next sequence number, the time and the chain
// head, then writes and syncs it. It returns the entry as written.
func (l *Log) Append(e Entry) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Seq = l.seq + 1
	e.At = l.now().UTC().Truncate(time.Millisecond)
	e.Prev = l.head

	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return Entry{}, fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return Entry{}, fmt.Errorf("audit: sync: %w", err)
	}

	l.seq = e.Seq
	l.head = Hash(data)
	return e, nil
}

// RecordSwap appends an entry for rec.
func (l *Log) RecordSwap(action string, rec model.SwapRecord) error {
	_, err := l.Append(FromRecord(action, rec))
	return err
}

// Path returns the journal file.
func (l *Log) Path() string { return l.path }

// Close closes the journal file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
