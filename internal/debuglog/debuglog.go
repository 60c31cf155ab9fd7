// Package debuglog writes the optional per-call debug trace. Each call that
// asks for debug=true gets its own ULID-named file, so concurrent calls
// never race on a shared counter or file. A nil sink is valid and silently
// discards everything; diagnostics must never affect correctness.
package debuglog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

type Sink struct {
	f    *os.File
	path string
}

// New opens a fresh call-scoped debug file under dir. A failure to open
// the sink is reported but not fatal: the caller gets a nil sink.
func New(dir string) *Sink {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("Debug sink unavailable", "dir", dir, "error", err)
		return nil
	}
	path := filepath.Join(dir, "call-"+ulid.Make().String()+".txt")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Warn("Debug sink unavailable", "path", path, "error", err)
		return nil
	}
	fmt.Fprintf(f, "Call log: %s\n\n", time.Now().Format(time.RFC3339))
	return &Sink{f: f, path: path}
}

// Printf appends one formatted line. Safe on a nil sink.
func (s *Sink) Printf(format string, args ...any) {
	if s == nil || s.f == nil {
		return
	}
	fmt.Fprintf(s.f, format+"\n", args...)
}

// Path returns the sink's file path, empty for a nil sink.
func (s *Sink) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close flushes and closes the sink. Safe on a nil sink.
func (s *Sink) Close() {
	if s == nil || s.f == nil {
		return
	}
	_ = s.f.Close()
}
