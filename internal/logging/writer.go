package logging

import (
	"bytes"
	"log/slog"
	"sync"
)

// Writes process output to a logger, one debug record per line.
//
// Stdout and stderr of a process are usually copied by separate goroutines,
// so writes are serialized. A trailing partial line is held until the next
// newline or [LineWriter.Flush].
type LineWriter struct {
	mu  sync.Mutex
	log *slog.Logger
	buf bytes.Buffer
}

// Creates a new [LineWriter].
func NewLineWriter(log *slog.Logger) *LineWriter {
	return &LineWriter{log: log}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Put the partial line back.
			w.buf.Write(line)
			break
		}
		w.emit(line[:len(line)-1])
	}
	return len(p), nil
}

// Emits any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *LineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) > 0 {
		w.log.Debug("output", "line", string(line))
	}
}
