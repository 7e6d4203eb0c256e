package history

// GroupScope groups changes until End is called.
// Usage:
//
//	func rename(h *History, buf *buffer.Buffer) {
//	    defer h.GroupScope("Rename").End()
//	    // ... multiple edits ...
//	}
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
func (h *History) GroupScope(name string) *GroupScope {
	h.BeginGroup(name)
	return &GroupScope{
		history: h,
		active:  true,
	}
}

// End ends the group scope.
// Safe to call multiple times; only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Cancel cancels the group scope without recording it.
func (g *GroupScope) Cancel() {
	if g.active {
		g.history.CancelGroup()
		g.active = false
	}
}

// Transaction runs fn inside a group. If fn returns an error the group is
// cancelled and the error returned.
func (h *History) Transaction(name string, fn func() error) error {
	h.BeginGroup(name)

	if err := fn(); err != nil {
		h.CancelGroup()
		return err
	}

	h.EndGroup()
	return nil
}
