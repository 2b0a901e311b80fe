package agentchat

import (
	"context"

	"github.com/martinemde/parley/enginellm"
)

// NativeEngine drives the entire multi-round tool loop itself: each
// round runs over the provider's streaming API with token fragments
// forwarded through Emit as they arrive, and requested tools execute
// inside RunTurn between rounds. The orchestration loop sees one
// TurnResult per turn.
type NativeEngine struct {
	client *enginellm.Client
	model  string

	temperature *float64
	maxTokens   *int
}

// NativeEngineOption configures a NativeEngine.
type NativeEngineOption func(*NativeEngine)

// WithNativeTemperature sets the sampling temperature.
func WithNativeTemperature(t float64) NativeEngineOption {
	return func(e *NativeEngine) {
		e.temperature = &t
	}
}

// WithNativeMaxTokens caps the response length per round.
func WithNativeMaxTokens(n int) NativeEngineOption {
	return func(e *NativeEngine) {
		e.maxTokens = &n
	}
}

// NewNativeEngine creates a NativeEngine backed by the given client and
// model.
func NewNativeEngine(client *enginellm.Client, model string, opts ...NativeEngineOption) *NativeEngine {
	e := &NativeEngine{
		client: client,
		model:  model,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunTurn drives the full tool loop: stream a round, execute requested
// tools, feed the results back, repeat until the engine answers or the
// round budget runs out. Text alongside tool calls is kept as the best
// partial answer for the budget-exhaustion case.
func (e *NativeEngine) RunTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	result := &TurnResult{}
	working := in.Messages

	for round := 0; round < in.MaxRounds; round++ {
		completion, err := e.Complete(ctx, CompletionRequest{
			Messages: working,
			Tools:    in.Registry.Definitions(),
			Emit:     in.Emit,
		})
		if err != nil {
			return nil, err
		}
		result.Usage = result.Usage.Add(completion.Usage)

		if len(completion.ToolCalls) == 0 {
			result.FinalText = completion.Text
			result.Streamed = completion.Streamed
			return result, nil
		}

		if completion.Text != "" {
			result.FinalText = completion.Text
			result.Streamed = completion.Streamed
		}

		callMsg := NewToolCallMessage(completion.Text, completion.ToolCalls)
		result.Transcript = append(result.Transcript, callMsg)
		working = append(working, callMsg)

		for _, call := range completion.ToolCalls {
			in.Emit(ToolCallEvent(call.Name, call.Arguments))
			output, isError := executeTool(ctx, in.Registry, call)
			in.Emit(ToolResultEvent(call.Name, output, isError))

			fed := TruncateToolOutput(output, call.Name, in.CharLimits, in.LineLimits)
			resultMsg := NewToolResultMessage(call.ID, fed, isError)
			result.Transcript = append(result.Transcript, resultMsg)
			working = append(working, resultMsg)
		}

		if in.LoopWindow > 0 && DetectRepeatedCalls(working, in.LoopWindow) {
			break
		}
	}

	return result, nil
}

// Complete runs one streaming completion round, emitting token events
// for every text delta. An in-stream failure aborts the round; text
// already emitted stays emitted.
func (e *NativeEngine) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	request := enginellm.Request{
		Model:       e.model,
		Messages:    ToEngineMessages(req.Messages),
		ToolDefs:    req.Tools,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	}

	events, err := e.client.Stream(ctx, request)
	if err != nil {
		return nil, err
	}

	acc := enginellm.NewStreamAccumulator()
	streamed := false
	for event := range events {
		switch event.Type {
		case enginellm.TextDelta:
			req.Emit(TokenEvent(event.Delta))
			streamed = true
		case enginellm.StreamFailure:
			return nil, event.Err
		}
		acc.Process(event)

		select {
		case <-ctx.Done():
			return nil, &enginellm.AbortError{SDKError: enginellm.SDKError{
				Message: "stream cancelled", Cause: ctx.Err(),
			}}
		default:
		}
	}

	resp := acc.Response()
	outcome, err := enginellm.DecodeOutcome(resp)
	if err != nil {
		return nil, err
	}

	return &Completion{
		Text:      outcome.Text,
		ToolCalls: outcome.ToolCalls,
		Streamed:  streamed,
		Usage:     resp.Usage,
	}, nil
}
