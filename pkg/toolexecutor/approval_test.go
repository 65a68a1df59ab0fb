package toolexecutor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec() ToolSpec {
	return ToolSpec{
		Name:        "write",
		Description: "Write a file",
		Category:    CategoryWrite,
		Destructive: true,
		Handler:     func(ctx context.Context, args map[string]interface{}) (string, error) { return "ok", nil },
	}
}

func TestGate_Classify(t *testing.T) {
	gate := NewGate(nil, "/tmp", 0)

	assert.Equal(t, Destructive, gate.Classify(writeSpec()))
	assert.Equal(t, Safe, gate.Classify(ToolSpec{Name: "view", Category: CategoryRead}))
	assert.Equal(t, "destructive", Destructive.String())
	assert.Equal(t, "safe", Safe.String())
}

func TestGate_RequestApproval_Approved(t *testing.T) {
	handler := &MockApprovalHandler{
		Responses: []ApprovalResponse{{Approved: true, Reason: "test approval"}},
	}
	gate := NewGate(handler, "/tmp", time.Second)

	call := NewToolCall("call-1", "write", map[string]interface{}{"file_path": "/tmp/a"})
	resp := gate.RequestApproval(context.Background(), call, writeSpec())

	assert.True(t, resp.Approved)
	require.Len(t, handler.Requests, 1)
	assert.Equal(t, "call-1", handler.Requests[0].CallID)
	assert.Equal(t, "write", handler.Requests[0].Tool)
	assert.Equal(t, "/tmp", handler.Requests[0].Cwd)
	assert.Equal(t, "/tmp/a", handler.Requests[0].Arguments["file_path"])
}

func TestGate_RequestApproval_Denied(t *testing.T) {
	handler := &MockApprovalHandler{
		Responses: []ApprovalResponse{{Approved: false, Reason: "test denial"}},
	}
	gate := NewGate(handler, "/", 0)

	resp := gate.RequestApproval(context.Background(), NewToolCall("", "write", nil), writeSpec())

	assert.False(t, resp.Approved)
	assert.Equal(t, "test denial", resp.Reason)
}

func TestGate_ApprovalIsPerCall(t *testing.T) {
	handler := &MockApprovalHandler{
		Responses: []ApprovalResponse{{Approved: true}},
	}
	gate := NewGate(handler, "/", 0)

	first := gate.RequestApproval(context.Background(), NewToolCall("a", "write", nil), writeSpec())
	second := gate.RequestApproval(context.Background(), NewToolCall("b", "write", nil), writeSpec())

	assert.True(t, first.Approved)
	assert.False(t, second.Approved)
	assert.Len(t, handler.Requests, 2)
}

func TestGate_RequestApproval_Timeout(t *testing.T) {
	handler := &MockApprovalHandler{
		Delay:     2 * time.Second,
		Responses: []ApprovalResponse{{Approved: true}},
	}
	gate := NewGate(handler, "/", 100*time.Millisecond)

	resp := gate.RequestApproval(context.Background(), NewToolCall("", "write", nil), writeSpec())

	assert.False(t, resp.Approved)
	assert.Contains(t, resp.Reason, "timed out")
}

func TestGate_RequestApproval_Cancelled(t *testing.T) {
	handler := &MockApprovalHandler{Delay: 2 * time.Second}
	gate := NewGate(handler, "/", 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := gate.RequestApproval(ctx, NewToolCall("", "write", nil), writeSpec())

	assert.False(t, resp.Approved)
	assert.Contains(t, resp.Reason, "cancelled")
}

func TestGate_RequestApproval_Error(t *testing.T) {
	handler := &MockApprovalHandler{Error: errors.New("handler error")}
	gate := NewGate(handler, "/", 0)

	resp := gate.RequestApproval(context.Background(), NewToolCall("", "write", nil), writeSpec())

	assert.False(t, resp.Approved)
	assert.Contains(t, resp.Reason, "handler error")
}

func TestGate_NoHandler(t *testing.T) {
	gate := NewGate(nil, "/", 0)

	resp := gate.RequestApproval(context.Background(), NewToolCall("", "write", nil), writeSpec())

	assert.False(t, resp.Approved)
	assert.Contains(t, resp.Reason, "no approval handler")
}

func TestMockApprovalHandler_ContextCancellation(t *testing.T) {
	handler := &MockApprovalHandler{Delay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.RequestApproval(ctx, ApprovalRequest{Tool: "bash"})

	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}
