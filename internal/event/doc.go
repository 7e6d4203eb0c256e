// Package event provides ordered, synchronous subscription lists.
//
// Every entity that publishes notifications (the buffer, individual markers,
// decorations, the display translator) owns an Emitter. Dispatch happens in
// the publisher's goroutine, in priority order, before Emit returns. This is
// what lets the editor guarantee that the marker index has finished
// rewriting every marker before any other component observes a buffer
// change.
//
// Basic usage:
//
//	var changes event.Emitter[Change]
//
//	sub := changes.Subscribe(func(c Change) {
//	    // react to c
//	}, event.WithPriority(event.PriorityDisplay))
//	defer sub.Dispose()
//
//	changes.Emit(Change{})
//
// Cancellation is unsubscription. Disposing a subscription from inside a
// handler is allowed; the handler is not invoked again, including for the
// remainder of the current dispatch.
package event
