package coretools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harun/smolcc/pkg/toolexecutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*toolexecutor.Registry, string) {
	t.Helper()
	dir := t.TempDir()
	reg := toolexecutor.NewRegistry()
	require.NoError(t, Register(reg, Options{WorkingDir: dir}))
	return reg, dir
}

func invoke(t *testing.T, reg *toolexecutor.Registry, name string, args map[string]interface{}) (string, error) {
	t.Helper()
	spec, err := reg.Lookup(name)
	require.NoError(t, err)
	require.NoError(t, reg.Validate(name, args))
	return spec.Handler(context.Background(), args)
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRegister(t *testing.T) {
	reg, _ := newTestRegistry(t)

	names := []string{}
	for _, spec := range reg.List() {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{"bash", "edit", "glob", "grep", "ls", "view", "write"}, names)

	gate := toolexecutor.NewGate(nil, "", 0)
	for _, spec := range reg.List() {
		want := toolexecutor.Safe
		if spec.Name == "bash" || spec.Name == "edit" || spec.Name == "write" {
			want = toolexecutor.Destructive
		}
		assert.Equal(t, want, gate.Classify(spec), spec.Name)
	}
}

func TestRegister_Errors(t *testing.T) {
	assert.Error(t, Register(nil, Options{WorkingDir: "/tmp"}))
	assert.Error(t, Register(toolexecutor.NewRegistry(), Options{}))

	reg := toolexecutor.NewRegistry()
	require.NoError(t, Register(reg, Options{WorkingDir: t.TempDir()}))
	err := Register(reg, Options{WorkingDir: t.TempDir()})
	assert.ErrorIs(t, err, toolexecutor.ErrDuplicateToolName)
}

func TestRegister_Enabled(t *testing.T) {
	reg := toolexecutor.NewRegistry()
	err := Register(reg, Options{
		WorkingDir: t.TempDir(),
		Enabled:    func(name string) bool { return name != "bash" },
	})
	require.NoError(t, err)

	assert.Equal(t, 6, reg.Count())
	_, err = reg.Lookup("bash")
	assert.ErrorIs(t, err, toolexecutor.ErrToolNotFound)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "absolute", input: "/etc/hosts", want: "/etc/hosts"},
		{name: "relative", input: "src/main.go", want: "/work/src/main.go"},
		{name: "cleaned", input: "/work/../work/./a.txt", want: "/work/a.txt"},
		{name: "empty", input: "  ", wantErr: true},
		{name: "url", input: "file:///etc/hosts", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePath("/work", tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary([]byte("plain text\nwith lines\n")))
	assert.False(t, isBinary([]byte("héllo wörld")))
	assert.True(t, isBinary([]byte{'a', 0, 'b'}))
	assert.True(t, isBinary([]byte{0xff, 0xfe, 0xfd}))

	// A multi-byte rune cut at the sniff boundary is still text
	long := make([]byte, 0, 8010)
	for len(long) < 7999 {
		long = append(long, 'a')
	}
	long = append(long, "é and more"...)
	assert.False(t, isBinary(long))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 5, toInt(float64(5), 1))
	assert.Equal(t, 7, toInt(7, 1))
	assert.Equal(t, 1, toInt("7", 1))
	assert.Equal(t, 1, toInt(nil, 1))
}
