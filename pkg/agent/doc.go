// Package agent drives the tool-mediated turn loop between the user, the
// model and the local capabilities.
//
// Invariants:
// - Each model reply is parsed once into a PlainAnswer, ToolInvocation or
//   MultipleToolCalls before any state changes.
// - At most one tool call runs per assistant turn; extra calls are rejected
//   as a whole and nothing executes.
// - Every tool call recorded in the session is answered by exactly one
//   result before the next model request.
// - Destructive tools run only after the confirmation gate approves that call.
//
// Usage:
//
//	ctrl, _ := agent.NewController(agent.ControllerConfig{
//		Client:     client,
//		Registry:   reg,
//		Gate:       gate,
//		Dispatcher: dispatcher,
//		Session:    sess,
//		Settings:   cfg.SessionConfig(cwd),
//	})
//	outcome, err := ctrl.Submit(ctx, "add a test for the parser")
//	_ = outcome
package agent
