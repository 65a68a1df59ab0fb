// Package memory loads the project memory note and notices when it changes.
//
// Invariants:
// - A missing note loads as empty content and never fails the session.
// - Content is returned byte-for-byte as read; the store never writes the note.
// - Changes made during the session are observed, not re-read.
//
// Usage:
//
//	store, _ := memory.Load("/work/SMOLCC.md")
//	defer store.Close()
//	_ = store.Watch(log.Logger)
//	note := store.CurrentContent()
//	_ = note
package memory
