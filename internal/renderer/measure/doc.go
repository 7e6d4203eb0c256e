// Package measure schedules off-screen measurement of block decorations.
//
// The Scheduler hands out a ticket for every block that needs measuring.
// Collaborators measure the block's content wherever they like and resolve
// the ticket from any goroutine. The owner goroutine later drains the
// resolved results and applies them to the decoration manager, which drops
// results for decorations that no longer exist.
//
// A ticket is superseded when the same decoration is requested again and
// cancelled when the decoration is destroyed. Resolving a superseded or
// cancelled ticket returns a *RaceError and the result is discarded.
package measure
