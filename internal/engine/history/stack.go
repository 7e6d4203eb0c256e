package history

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dshills/tessera/internal/engine/buffer"
	"github.com/dshills/tessera/internal/event"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries is the undo depth used when none is given.
const DefaultMaxEntries = 1000

// Option configures a History.
type Option func(*History)

// WithMaxEntries bounds the undo stack.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxEntries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// History manages undo/redo state for a buffer.
type History struct {
	mu sync.Mutex

	buf    *buffer.Buffer
	sub    *event.Subscription
	logger *slog.Logger

	undoStack []*entry
	redoStack []*entry

	// Grouping state
	grouping  bool
	groupName string
	group     []buffer.Change

	// replaying is set while Undo or Redo edits the buffer.
	replaying bool

	maxEntries int
}

// New creates a history that records every change of buf.
func New(buf *buffer.Buffer, opts ...Option) *History {
	h := &History{
		buf:        buf,
		logger:     slog.New(slog.DiscardHandler),
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "history")
	h.sub = buf.OnDidChange(h.record)
	return h
}

// Close stops recording.
func (h *History) Close() {
	h.sub.Dispose()
}

func (h *History) record(ev buffer.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.replaying {
		return
	}
	if h.grouping {
		h.group = append(h.group, ev.Changes...)
		return
	}
	h.pushLocked(&entry{changes: slices.Clone(ev.Changes), timestamp: time.Now()})
}

// pushLocked adds an entry without acquiring the lock.
// Clears the redo stack.
func (h *History) pushLocked(e *entry) {
	h.undoStack = append(h.undoStack, e)
	h.redoStack = nil

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo reverts the last entry.
func (h *History) Undo() error {
	h.mu.Lock()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return ErrNothingToUndo
	}
	if h.grouping {
		h.endGroupLocked()
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.replaying = true
	h.mu.Unlock()

	// Subscribers of the buffer run inside undo; the lock is not held.
	err := e.undo(h.buf)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.replaying = false
	if err != nil {
		h.undoStack = append(h.undoStack, e)
		h.logger.Warn("undo failed", "operation", e.description(), "error", err)
		return err
	}
	h.redoStack = append(h.redoStack, e)
	return nil
}

// Redo applies the last undone entry again.
func (h *History) Redo() error {
	h.mu.Lock()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.replaying = true
	h.mu.Unlock()

	err := e.redo(h.buf)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.replaying = false
	if err != nil {
		h.redoStack = append(h.redoStack, e)
		h.logger.Warn("redo failed", "operation", e.description(), "error", err)
		return err
	}
	h.undoStack = append(h.undoStack, e)
	return nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0 || len(h.group) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo operations available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo operations available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// BeginGroup starts a group. Changes recorded until EndGroup undo as one
// unit. Nested calls are ignored.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		return
	}
	h.grouping = true
	h.groupName = name
	h.group = nil
}

// EndGroup finishes a group.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endGroupLocked()
}

func (h *History) endGroupLocked() {
	if !h.grouping {
		return
	}
	h.grouping = false
	if len(h.group) > 0 {
		h.pushLocked(&entry{name: h.groupName, changes: h.group, timestamp: time.Now()})
	}
	h.group = nil
	h.groupName = ""
}

// CancelGroup cancels a group without adding it to the history.
// Note: the edits made while grouping still affect the buffer.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.group = nil
	h.groupName = ""
}

// IsGrouping returns true if a group is open.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.grouping = false
	h.group = nil
}

// UndoInfo returns the undo entries, oldest first.
func (h *History) UndoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.undoStack)
}

// RedoInfo returns the redo entries, oldest first.
func (h *History) RedoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.redoStack)
}

func infos(stack []*entry) []OperationInfo {
	result := make([]OperationInfo, len(stack))
	for i, e := range stack {
		result[i] = e.info()
	}
	return result
}

// PeekUndo returns the next undo entry without removing it.
func (h *History) PeekUndo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return OperationInfo{}, false
	}
	return h.undoStack[len(h.undoStack)-1].info(), true
}

// PeekRedo returns the next redo entry without removing it.
func (h *History) PeekRedo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return OperationInfo{}, false
	}
	return h.redoStack[len(h.redoStack)-1].info(), true
}

// SetMaxEntries changes the maximum number of undo entries.
// If the current stack is larger, oldest entries are removed.
func (h *History) SetMaxEntries(n int) {
	if n <= 0 {
		n = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = n
	if len(h.undoStack) > n {
		h.undoStack = h.undoStack[len(h.undoStack)-n:]
	}
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
