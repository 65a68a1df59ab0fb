// Package session holds the in-memory state of one conversation: its
// ordered turns, the memory note loaded at start and an event log.
//
// Invariants:
// - Turns are append-only; nothing is reordered or removed.
// - An assistant turn carries at most one ToolCall.
// - A tool turn carries exactly one ToolResult answering the pending call.
// - A terminated session accepts no further turns.
//
// Usage:
//
//	s, _ := session.New("/work", "/work/SMOLCC.md", note)
//	_ = s.Append(session.Turn{Role: session.RoleUser, Text: "hello"})
//	turns := s.Turns()
//	_ = turns
package session
