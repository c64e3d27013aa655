package engine

import (
	"log/slog"
	"time"

	"github.com/inamate/designsurface/internal/history"
	"github.com/inamate/designsurface/internal/typeid"
)

// Default configuration values.
const (
	DefaultHistoryCapacity = history.DefaultCapacity
	DefaultDuplicateOffset = 20.0
	DuplicateNameSuffix    = " copy"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithHistoryCapacity sets the maximum number of undo entries.
func WithHistoryCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyCapacity = n
		}
	}
}

// WithDuplicateOffset sets how far duplicates are shifted on both axes.
func WithDuplicateOffset(offset float64) Option {
	return func(e *Engine) {
		e.duplicateOffset = offset
	}
}

// WithActor sets the user recorded on history entries and shape stamps.
func WithActor(userID string) Option {
	return func(e *Engine) {
		e.actor = userID
	}
}

// WithClock overrides the millisecond clock used for timestamps.
func WithClock(now func() int64) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides shape id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newShapeID = newID
		}
	}
}

// WithLogger sets the logger used for ignored requests.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func defaultClock() int64 {
	return time.Now().UnixMilli()
}

func defaults() *Engine {
	return &Engine{
		historyCapacity: DefaultHistoryCapacity,
		duplicateOffset: DefaultDuplicateOffset,
		now:             defaultClock,
		newShapeID:      typeid.NewShapeID,
		newGroupID:      typeid.NewGroupID,
		newEntryID:      typeid.NewHistoryID,
		log:             slog.Default(),
	}
}
