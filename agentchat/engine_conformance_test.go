package agentchat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/martinemde/parley/enginellm"
)

// scriptedAdapter replays a fixed sequence of responses, one per
// completion request. It serves both engine modes: Complete returns the
// next response whole, Stream replays it as delta and tool call events.
type scriptedAdapter struct {
	responses []*enginellm.Response
	errs      []error
	mu        sync.Mutex
	idx       int
}

func (a *scriptedAdapter) Name() string { return "scripted" }

func (a *scriptedAdapter) next() (*enginellm.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.idx
	a.idx++
	if i < len(a.errs) && a.errs[i] != nil {
		return nil, a.errs[i]
	}
	if i >= len(a.responses) {
		return nil, errors.New("script exhausted")
	}
	return a.responses[i], nil
}

func (a *scriptedAdapter) Complete(ctx context.Context, req enginellm.Request) (*enginellm.Response, error) {
	return a.next()
}

func (a *scriptedAdapter) Stream(ctx context.Context, req enginellm.Request) (<-chan enginellm.StreamEvent, error) {
	resp, err := a.next()
	ch := make(chan enginellm.StreamEvent, 64)
	go func() {
		defer close(ch)
		if err != nil {
			ch <- enginellm.StreamEvent{Type: enginellm.StreamFailure, Err: err}
			return
		}
		ch <- enginellm.StreamEvent{Type: enginellm.StreamStart}
		for _, r := range resp.Text() {
			ch <- enginellm.StreamEvent{Type: enginellm.TextDelta, Delta: string(r)}
		}
		for _, tc := range resp.ToolCallsFromResponse() {
			call := tc
			ch <- enginellm.StreamEvent{Type: enginellm.ToolCallEnd, ToolCall: &call}
		}
		ch <- enginellm.StreamEvent{Type: enginellm.StreamFinish, Response: resp}
	}()
	return ch, nil
}

func textResponse(text string) *enginellm.Response {
	return &enginellm.Response{
		Message:      enginellm.AssistantMessage(text),
		FinishReason: enginellm.FinishReason{Reason: "stop"},
		Usage:        enginellm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}
}

func toolCallResponse(name, args string) *enginellm.Response {
	msg := enginellm.Message{Role: enginellm.RoleAssistant}
	msg.Content = append(msg.Content,
		enginellm.ToolCallPart("call_1", name, json.RawMessage(args)))
	return &enginellm.Response{
		Message:      msg,
		FinishReason: enginellm.FinishReason{Reason: "tool_calls"},
		Usage:        enginellm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}
}

// engineFactories builds both engine modes over the same scripted
// adapter so every scenario below runs against each.
var engineFactories = []struct {
	name  string
	build func(adapter *scriptedAdapter) Engine
}{
	{
		name: "native",
		build: func(adapter *scriptedAdapter) Engine {
			client := enginellm.NewClient(enginellm.WithProvider("scripted", adapter))
			return NewNativeEngine(client, "test-model")
		},
	},
	{
		name: "manual",
		build: func(adapter *scriptedAdapter) Engine {
			client := enginellm.NewClient(enginellm.WithProvider("scripted", adapter))
			return NewManualEngine(client, "test-model",
				WithManualRetryPolicy(enginellm.RetryPolicy{MaxRetries: 0}))
		},
	},
}

func collectEvents(t *testing.T, emitter *EventEmitter) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-emitter.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatal("timed out waiting for events")
		}
	}
}

func joinTokens(events []StreamEvent) string {
	text := ""
	for _, ev := range events {
		if ev.Kind == EventToken {
			text += ev.Text
		}
	}
	return text
}

func assertSingleTerminalDone(t *testing.T, events []StreamEvent) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events delivered")
	}
	doneCount := 0
	for _, ev := range events {
		if ev.Kind == EventDone {
			doneCount++
		}
	}
	if doneCount != 1 {
		t.Errorf("expected exactly one done event, got %d", doneCount)
	}
	if events[len(events)-1].Kind != EventDone {
		t.Errorf("done must be last, got %s", events[len(events)-1].Kind)
	}
}

func TestEngineConformanceSimpleAnswer(t *testing.T) {
	for _, factory := range engineFactories {
		t.Run(factory.name, func(t *testing.T) {
			adapter := &scriptedAdapter{responses: []*enginellm.Response{textResponse("4")}}
			store := NewStore()
			loop := NewLoop(factory.build(adapter), store, nil, LoopConfig{})

			emitter, err := loop.Run(context.Background(), TurnRequest{SessionID: "s1", Message: "What is 2 + 2?"})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			events := collectEvents(t, emitter)

			assertSingleTerminalDone(t, events)
			if got := joinTokens(events); got != "4" {
				t.Errorf("expected answer 4, got %q", got)
			}
			for _, ev := range events {
				if ev.Kind == EventToolCall || ev.Kind == EventError {
					t.Errorf("unexpected %s event", ev.Kind)
				}
			}

			history, _ := store.History("s1")
			if len(history) != 2 {
				t.Fatalf("expected 2 committed messages, got %d", len(history))
			}
			if history[1].Role != RoleAssistant || history[1].Content != "4" {
				t.Errorf("unexpected assistant commit: %+v", history[1])
			}
		})
	}
}

func TestEngineConformanceToolRound(t *testing.T) {
	for _, factory := range engineFactories {
		t.Run(factory.name, func(t *testing.T) {
			adapter := &scriptedAdapter{responses: []*enginellm.Response{
				toolCallResponse("lookup", `{"term":"X"}`),
				textResponse("Answer based on X"),
			}}
			registry := NewToolRegistry()
			registry.Register(RegisteredTool{
				Definition: enginellm.ToolDefinition{Name: "lookup"},
				Executor: func(ctx context.Context, args json.RawMessage) (string, error) {
					return "X", nil
				},
			})
			store := NewStore()
			loop := NewLoop(factory.build(adapter), store, registry, LoopConfig{})

			emitter, err := loop.Run(context.Background(), TurnRequest{SessionID: "s1", Message: "Look up X"})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			events := collectEvents(t, emitter)
			assertSingleTerminalDone(t, events)

			callIdx, resultIdx := -1, -1
			for i, ev := range events {
				switch ev.Kind {
				case EventToolCall:
					callIdx = i
					if ev.ToolName != "lookup" {
						t.Errorf("unexpected tool name %q", ev.ToolName)
					}
				case EventToolResult:
					resultIdx = i
					if ev.ToolOutput != "X" || ev.IsError {
						t.Errorf("unexpected tool result: %+v", ev)
					}
				}
			}
			if callIdx == -1 || resultIdx == -1 || callIdx > resultIdx {
				t.Errorf("tool_call must precede tool_result: call=%d result=%d", callIdx, resultIdx)
			}
			if got := joinTokens(events); got != "Answer based on X" {
				t.Errorf("unexpected answer: %q", got)
			}

			history, _ := store.History("s1")
			if len(history) != 4 {
				t.Fatalf("expected 4 committed messages, got %d", len(history))
			}
			if len(history[1].ToolCalls) != 1 || history[1].ToolCalls[0].Name != "lookup" {
				t.Errorf("tool call not recorded: %+v", history[1])
			}
			if history[2].Role != RoleTool || history[2].Content != "X" {
				t.Errorf("tool result not recorded: %+v", history[2])
			}
			if history[3].Content != "Answer based on X" {
				t.Errorf("final answer not recorded: %+v", history[3])
			}
		})
	}
}

func TestEngineConformanceEngineFailure(t *testing.T) {
	for _, factory := range engineFactories {
		t.Run(factory.name, func(t *testing.T) {
			adapter := &scriptedAdapter{errs: []error{errors.New("engine exploded")}}
			store := NewStore()
			loop := NewLoop(factory.build(adapter), store, nil, LoopConfig{})

			emitter, err := loop.Run(context.Background(), TurnRequest{SessionID: "s1", Message: "hello"})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			events := collectEvents(t, emitter)
			assertSingleTerminalDone(t, events)

			sawError := false
			for _, ev := range events {
				if ev.Kind == EventError {
					sawError = true
				}
				if ev.Kind == EventToken {
					t.Error("failed turn should emit no tokens")
				}
			}
			if !sawError {
				t.Error("expected an error event")
			}

			history, _ := store.History("s1")
			if len(history) != 1 || history[0].Role != RoleUser {
				t.Fatalf("only the user message should be committed, got %+v", history)
			}
		})
	}
}

func TestEngineConformanceToolFailureAbsorbed(t *testing.T) {
	for _, factory := range engineFactories {
		t.Run(factory.name, func(t *testing.T) {
			adapter := &scriptedAdapter{responses: []*enginellm.Response{
				toolCallResponse("lookup", `{"term":"X"}`),
				textResponse("The lookup failed"),
			}}
			registry := NewToolRegistry()
			registry.Register(RegisteredTool{
				Definition: enginellm.ToolDefinition{Name: "lookup"},
				Executor: func(ctx context.Context, args json.RawMessage) (string, error) {
					return "", errors.New("index offline")
				},
			})
			loop := NewLoop(factory.build(adapter), NewStore(), registry, LoopConfig{})

			emitter, err := loop.Run(context.Background(), TurnRequest{Message: "Look up X"})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			events := collectEvents(t, emitter)
			assertSingleTerminalDone(t, events)

			for _, ev := range events {
				if ev.Kind == EventError {
					t.Error("tool failure must not surface as an error event")
				}
				if ev.Kind == EventToolResult && !ev.IsError {
					t.Error("tool result should be flagged as an error")
				}
			}
			if got := joinTokens(events); got != "The lookup failed" {
				t.Errorf("loop should continue after tool failure, got %q", got)
			}
		})
	}
}
