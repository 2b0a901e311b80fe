// Package agentchat implements a bounded conversational agent loop.
//
// A turn takes one user message, drives a completion engine through a
// limited number of rounds, executes the tools the engine requests, and
// delivers the answer as a stream of typed events. Conversation history
// is kept per session in an in-memory store; each turn holds an
// exclusive lease on its session so appends never interleave.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Loop: The orchestrator driving rounds, executing tools, and
//     committing messages.
//   - Engine: One completion round. NativeEngine streams token
//     fragments live; ManualEngine completes in one shot and lets the
//     loop synthesize the token stream. Both produce the same event
//     protocol.
//   - Store: Per-session ordered message logs with turn leasing.
//   - ToolRegistry: Registration and dispatch of tool definitions.
//   - EventEmitter: The per-turn event channel. Events are buffered,
//     never dropped, and always end with exactly one done event.
//
// # Quick Start
//
//	client := enginellm.NewClientFromEnv()
//	engine := agentchat.NewNativeEngine(client, "claude-opus-4-6")
//	loop := agentchat.NewLoop(engine, agentchat.NewStore(), registry, agentchat.LoopConfig{})
//
//	emitter, err := loop.Run(ctx, agentchat.TurnRequest{Message: "What is 2 + 2?"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for event := range emitter.Events() {
//	    fmt.Printf("[%s] %s\n", event.Kind, event.Text)
//	}
package agentchat
