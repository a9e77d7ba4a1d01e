package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// MaxLineSize bounds a single JSON-lines delivery.
const MaxLineSize = 64 << 20

// Lines reads one delivery envelope per line.
// Blank lines are ignored.
type Lines struct {
	r    io.Reader
	name string
}

// NewLines creates a Lines source. name identifies the input in logs.
func NewLines(r io.Reader, name string) *Lines {
	return &Lines{r: r, name: name}
}

// Run implements Source.
func (l *Lines) Run(ctx context.Context, handle Handler) error {
	scanner := bufio.NewScanner(l.r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := dispatch(ctx, line, fmt.Sprintf("%s:%d", l.name, lineNo), handle); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", l.name, err)
	}
	return nil
}
