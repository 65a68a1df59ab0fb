// Package toolexecutor holds the closed set of tools the model may call and
// the machinery between a parsed call and its result.
//
// Invariants:
// - Tool names are unique; unknown names never reach the Dispatcher.
// - Arguments are schema-validated before any confirmation or execution.
// - Destructive tools run only after the Gate obtains approval for that call.
// - Every dispatched call yields exactly one ToolResult with the call's ID.
//
// Usage:
//
//	reg := toolexecutor.NewRegistry()
//	_ = reg.Register(toolexecutor.ToolSpec{
//		Name:        "echo",
//		Description: "Echo input",
//		Category:    toolexecutor.CategoryRead,
//		Parameters:  []toolexecutor.ToolParameter{{Name: "text", Type: "string", Description: "text", Required: true}},
//		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
//			return args["text"].(string), nil
//		},
//	})
//	spec, _ := reg.Lookup("echo")
//	result := toolexecutor.NewDispatcher(toolexecutor.DispatcherConfig{}).Execute(ctx, call, spec)
package toolexecutor
