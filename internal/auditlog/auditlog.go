// Package auditlog is the append-only text trail every run leaves behind:
// one line with the full status snapshot and one line with the outcome.
package auditlog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	SuccessLine = "Service ran successfully"
	MailWarning = "WARNING: Mail send Failed"
)

type Sink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// Open appends to path. With maxMB > 0 the file is rotated into
// timestamped backups once it grows past maxMB; nothing is truncated.
func Open(path string, maxMB int) *Sink {
	lj := &lumberjack.Logger{Filename: path, MaxSize: maxMB}
	if maxMB <= 0 {
		// lumberjack needs a size; make it effectively unbounded
		lj.MaxSize = 1 << 20
	}
	return &Sink{w: lj}
}

// New wraps an arbitrary writer, mostly for tests.
func New(w io.WriteCloser) *Sink { return &Sink{w: w} }

// Append writes msg as a single line. Embedded newlines are flattened so
// one call is always one line.
func (s *Sink) Append(msg string) error {
	line := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(msg) + "\n"
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
