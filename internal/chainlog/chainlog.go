// Package chainlog appends raw event payloads to a text log.
//
// Each delivery becomes one line:
//
//	<CATEGORY> <unix-millis> <id> <compact-json>
//
// The id is the transaction id for unconfirmed deliveries and the block hash
// for confirmed batches. The log is append-only; it is never read back.
package chainlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// FileName is the log file name inside the data directory.
const FileName = "chain.txt"

// Log writes one line per delivery.
// Thread-safety: Append is safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

// Open opens path for appending, creating it and its directory if needed.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create chain log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open chain log: %w", err)
	}
	return &Log{w: f, closer: f, now: time.Now}, nil
}

// New writes to w. The caller keeps ownership of w.
func New(w io.Writer, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{w: w, now: now}
}

// Append writes one line for a delivery.
// payload must be valid JSON; it is compacted onto the line.
func (l *Log) Append(category, id string, payload json.RawMessage) error {
	var line bytes.Buffer
	line.WriteString(category)
	line.WriteByte(' ')
	line.WriteString(strconv.FormatInt(l.now().UnixMilli(), 10))
	line.WriteByte(' ')
	line.WriteString(id)
	line.WriteByte(' ')
	if err := json.Compact(&line, payload); err != nil {
		return fmt.Errorf("append chain log: %w", err)
	}
	line.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(line.Bytes()); err != nil {
		return fmt.Errorf("append chain log: %w", err)
	}
	return nil
}

// Close closes the underlying file if Open created it.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
