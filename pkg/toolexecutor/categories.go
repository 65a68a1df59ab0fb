package toolexecutor

import "fmt"

// ToolCategory represents a category of tools
type ToolCategory string

const (
	CategoryRead  ToolCategory = "read"
	CategoryWrite ToolCategory = "write"
	CategoryShell ToolCategory = "shell"
)

// AllCategories returns all valid tool categories
func AllCategories() []ToolCategory {
	return []ToolCategory{
		CategoryRead,
		CategoryWrite,
		CategoryShell,
	}
}

// IsValidCategory checks if a category is valid. Names are case sensitive.
func IsValidCategory(category string) bool {
	cat := ToolCategory(category)
	for _, valid := range AllCategories() {
		if cat == valid {
			return true
		}
	}
	return false
}

// HasSideEffects reports whether tools of this category can modify the
// filesystem or spawn processes.
func (c ToolCategory) HasSideEffects() bool {
	return c == CategoryWrite || c == CategoryShell
}

// checkCategory rejects specs whose destructive flag disagrees with their category
func checkCategory(spec ToolSpec) error {
	if !IsValidCategory(string(spec.Category)) {
		return fmt.Errorf("%w: invalid category %q for %s", ErrInvalidToolSpec, spec.Category, spec.Name)
	}
	if spec.Category.HasSideEffects() && !spec.Destructive {
		return fmt.Errorf("%w: %s tool %s must be marked destructive", ErrInvalidToolSpec, spec.Category, spec.Name)
	}
	if !spec.Category.HasSideEffects() && spec.Destructive {
		return fmt.Errorf("%w: %s tool %s cannot be marked destructive", ErrInvalidToolSpec, spec.Category, spec.Name)
	}
	return nil
}

