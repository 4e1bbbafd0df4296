package editor

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used for rejected connections and other
// diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithHistoryCapacity bounds the number of undo snapshots kept.
func WithHistoryCapacity(n int) Option {
	return func(e *Editor) { e.capacity = n }
}

// WithIDGenerator replaces the generator used for new connection ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) {
		if fn != nil {
			e.newID = fn
		}
	}
}

func defaults(e *Editor) {
	e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	e.capacity = DefaultHistoryCapacity
	e.newID = uuid.NewString
}
