package toolexecutor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     bool
	}{
		{"valid read", "read", true},
		{"valid write", "write", true},
		{"valid shell", "shell", true},
		{"invalid category", "web", false},
		{"empty category", "", false},
		{"uppercase rejected", "READ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCategory(tt.category))
		})
	}
}

func TestCheckCategory(t *testing.T) {
	handler := func(ctx context.Context, args map[string]interface{}) (string, error) { return "", nil }

	tests := []struct {
		name        string
		category    ToolCategory
		destructive bool
		wantErr     bool
	}{
		{"read is safe", CategoryRead, false, false},
		{"write is destructive", CategoryWrite, true, false},
		{"shell is destructive", CategoryShell, true, false},
		{"write must be destructive", CategoryWrite, false, true},
		{"shell must be destructive", CategoryShell, false, true},
		{"read cannot be destructive", CategoryRead, true, true},
		{"unknown category", ToolCategory("web"), false, true},
		{"uppercase shell rejected", ToolCategory("SHELL"), false, true},
		{"uppercase write rejected", ToolCategory("Write"), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCategory(ToolSpec{
				Name:        "tool",
				Description: "tool",
				Category:    tt.category,
				Destructive: tt.destructive,
				Handler:     handler,
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidToolSpec)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
