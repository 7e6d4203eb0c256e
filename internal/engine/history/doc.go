// Package history provides undo/redo for a buffer.
//
// A History subscribes to a buffer and records every change event as one
// undo entry. Each event already describes one logical operation; a batch
// of edits or a buffer transaction arrives as a single event and undoes as
// one unit.
//
// # Undo and Redo
//
//	h := history.New(buf, history.WithMaxEntries(500))
//	defer h.Close()
//
//	buf.Insert(p, "text")
//	h.Undo() // removes "text"
//	h.Redo() // inserts it again
//
// Undo replays the inverse of each recorded change inside a buffer
// transaction, so markers, folds and decorations follow the reverted text
// like any other edit.
//
// # Grouping
//
// Several events can be grouped into one unit:
//
//	h.BeginGroup("Rename")
//	// ... multiple edits ...
//	h.EndGroup()
//
// Any new edit clears the redo stack.
package history
