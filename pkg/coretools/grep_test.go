package coretools

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrep_FindsMatches(t *testing.T) {
	reg, dir := newTestRegistry(t)
	now := time.Now()
	a := writeFixture(t, dir, "a.go", "package a\n\nfunc Alpha() {}\n")
	b := writeFixture(t, dir, "sub/b.go", "package b\n\nfunc Beta() {}\nfunc Gamma() {}\n")
	writeFixture(t, dir, "notes.txt", "func Nope() {}\n")
	touch(t, a, now.Add(-time.Hour))
	touch(t, b, now)

	out, err := invoke(t, reg, "grep", map[string]interface{}{
		"pattern": `func\s+\w+\(`,
		"include": "*.go",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Found 3 matches in 2 files")
	assert.NotContains(t, out, "notes.txt")
	assert.Less(t, strings.Index(out, b), strings.Index(out, a), "newest file first")
	assert.Contains(t, out, "     3 | func Beta() {}")
	assert.Contains(t, out, "     4 | func Gamma() {}")
}

func TestGrep_BraceInclude(t *testing.T) {
	reg, dir := newTestRegistry(t)
	writeFixture(t, dir, "x.ts", "needle\n")
	writeFixture(t, dir, "y.tsx", "needle\n")
	writeFixture(t, dir, "z.js", "needle\n")

	out, err := invoke(t, reg, "grep", map[string]interface{}{"pattern": "needle", "include": "*.{ts,tsx}"})
	require.NoError(t, err)
	assert.Contains(t, out, "in 2 files")
	assert.NotContains(t, out, "z.js")
}

func TestGrep_SkipsBinaryAndHidden(t *testing.T) {
	reg, dir := newTestRegistry(t)
	writeFixture(t, dir, "blob.bin", "needle\x00")
	writeFixture(t, dir, ".git/config", "needle\n")

	out, err := invoke(t, reg, "grep", map[string]interface{}{"pattern": "needle"})
	require.NoError(t, err)
	assert.Contains(t, out, "No matches found")
}

func TestGrep_NoCandidates(t *testing.T) {
	reg, dir := newTestRegistry(t)
	writeFixture(t, dir, "a.txt", "x\n")

	out, err := invoke(t, reg, "grep", map[string]interface{}{"pattern": "x", "include": "*.rs"})
	require.NoError(t, err)
	assert.Equal(t, "No files found matching include pattern: *.rs", out)
}

func TestGrep_InvalidPattern(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := invoke(t, reg, "grep", map[string]interface{}{"pattern": "(unclosed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid regular expression")
}

func TestGrep_CapsFilesAndLines(t *testing.T) {
	reg, dir := newTestRegistry(t)
	for i := 0; i < maxGrepFiles+3; i++ {
		writeFixture(t, dir, "f"+string(rune('a'+i))+".txt", strings.Repeat("hit\n", maxGrepLinesPerFile+2))
	}

	out, err := invoke(t, reg, "grep", map[string]interface{}{"pattern": "hit"})
	require.NoError(t, err)
	assert.Contains(t, out, "(showing first 10 files)")
	assert.Contains(t, out, "... and 2 more matches")
	assert.Equal(t, maxGrepFiles, strings.Count(out, "... and 2 more matches"))
}

func TestIncludeMatches(t *testing.T) {
	assert.True(t, includeMatches("*.go", "deep/dir/x.go"))
	assert.False(t, includeMatches("*.go", "deep/dir/x.gox"))
	assert.True(t, includeMatches("cmd/**/*.go", "cmd/smolcc/main.go"))
	assert.False(t, includeMatches("cmd/**/*.go", "pkg/main.go"))
}
