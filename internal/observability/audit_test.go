package observability

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/harun/smolcc/internal/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAuditLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestAuditLogger_RecordsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "audit.log")
	require.NoError(t, InitAuditLogger(path))
	t.Cleanup(func() { _ = GetAuditLogger().Close() })

	ctx := tracing.WithTraceID(context.Background(), "trace-1")
	ctx = tracing.WithSessionID(ctx, "sess-1")
	ctx = tracing.WithCallID(ctx, "call-1")

	RecordToolAudit(ctx, "bash", "sess-1", "success", map[string]interface{}{"exit_code": 0})
	RecordApprovalAudit(ctx, "write", "sess-1", false, nil)
	RecordConfigAudit(context.Background(), "config:save", "cli", map[string]interface{}{"path": "x.json"})

	lines := readAuditLines(t, path)
	require.Len(t, lines, 3)

	assert.Equal(t, "tool", lines[0]["type"])
	assert.Equal(t, "execute:bash", lines[0]["action"])
	assert.Equal(t, "success", lines[0]["status"])
	assert.Equal(t, "trace-1", lines[0]["trace_id"])
	assert.Equal(t, "sess-1", lines[0]["session_id"])
	assert.Equal(t, "call-1", lines[0]["call_id"])

	assert.Equal(t, "approval:write", lines[1]["action"])
	assert.Equal(t, "denied", lines[1]["status"])

	assert.Equal(t, "config", lines[2]["type"])
	assert.NotContains(t, lines[2], "call_id")
}

func TestAuditLogger_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, InitAuditLogger(path))
	t.Cleanup(func() { _ = GetAuditLogger().Close() })

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm()&0077 != 0 {
		t.Skip("filesystem does not honor permission bits")
	}
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestAuditLogger_CloseWithoutFile(t *testing.T) {
	a := NewAuditLogger(&bytes.Buffer{})
	assert.NoError(t, a.Close())
}

func TestAuditLogger_SecurityEvent(t *testing.T) {
	var buf bytes.Buffer
	a := NewAuditLogger(&buf)

	a.Record(context.Background(), AuditEvent{
		Type:   AuditTypeSecurity,
		Actor:  "model",
		Action: "banned_command:bash",
		Status: "rejected",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "security", entry["type"])
	assert.Equal(t, "rejected", entry["status"])
	assert.NotEmpty(t, entry["timestamp"])
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "metadata")
}

func TestAuditLogger_DiscardsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, InitAuditLogger(path))

	a := GetAuditLogger()
	require.NoError(t, a.Close())
	a.Record(context.Background(), AuditEvent{Type: AuditTypeTool, Action: "execute:view", Status: "success"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
