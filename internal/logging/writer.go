package logging

import (
	"log/slog"
	"strings"
)

// Writer is an io.Writer that forwards subprocess output to slog line by line.
type Writer struct {
	logger *slog.Logger
	source string
}

// NewWriter constructs a Writer bound to the provided logger. The source label
// identifies which subprocess produced the output.
func NewWriter(logger *slog.Logger, source string) *Writer {
	return &Writer{logger: logger, source: source}
}

// Write logs each non-empty line of p at info level.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger != nil {
		for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
			if line == "" {
				continue
			}
			w.logger.Info("subprocess output", "source", w.source, "line", line)
		}
	}
	return len(p), nil
}
