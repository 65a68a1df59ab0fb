package config

import "github.com/bmatcuk/doublestar/v4"

// ToolEnabled reports whether name passes the allow and deny patterns. Deny
// wins over allow; an empty allow list allows everything.
func (t ToolsConfig) ToolEnabled(name string) bool {
	for _, pattern := range t.Deny {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return false
		}
	}
	if len(t.Allow) == 0 {
		return true
	}
	for _, pattern := range t.Allow {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
