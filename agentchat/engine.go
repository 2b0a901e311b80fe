package agentchat

import (
	"context"

	"github.com/martinemde/parley/enginellm"
)

// EmitFunc delivers one stream event to the turn's consumer. Engines use
// it to forward token fragments as they arrive.
type EmitFunc func(StreamEvent)

// CompletionRequest is one round's worth of input to an engine: the
// working conversation so far plus the tools the engine may request.
type CompletionRequest struct {
	Messages []Message
	Tools    []enginellm.ToolDefinition

	// Emit receives live token events for engines that stream. Engines
	// that complete in one shot may ignore it. Never nil during a turn.
	Emit EmitFunc
}

// Completion is one round's output from an engine. Either Text is the
// candidate answer, or ToolCalls lists the invocations the engine wants
// before it can answer (Text may still carry commentary alongside them).
type Completion struct {
	Text      string
	ToolCalls []enginellm.ToolCall

	// Streamed reports that Text was already delivered through Emit as
	// token events. The loop must not re-stream it.
	Streamed bool

	Usage enginellm.Usage
}

// Engine produces completion rounds. For engines that implement only
// Complete, the orchestration loop owns the multi-round conversation: it
// calls Complete, executes any requested tools, folds the results into
// the working conversation, and calls Complete again until the engine
// answers or the round budget runs out. ManualEngine works this way.
//
// Engines that also implement TurnDriver own the tool loop themselves;
// see NativeEngine.
type Engine interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// TurnInput is a whole turn's input for engines that drive the tool
// loop natively.
type TurnInput struct {
	Messages []Message
	Registry *ToolRegistry
	Emit     EmitFunc

	MaxRounds  int
	LoopWindow int
	CharLimits map[string]int
	LineLimits map[string]int
}

// TurnResult is a whole turn's outcome from a TurnDriver. Transcript
// holds the tool-call and tool-result messages produced along the way,
// in order, without the final assistant message.
type TurnResult struct {
	FinalText string
	Streamed  bool

	Transcript []Message
	Usage      enginellm.Usage
}

// TurnDriver is implemented by engines that natively drive the entire
// multi-round tool loop. When the configured engine implements it, the
// orchestration loop degrades to a pass-through: events are already
// re-emitted in real time through Emit, and the loop only streams any
// unstreamed text and commits the transcript.
type TurnDriver interface {
	RunTurn(ctx context.Context, in TurnInput) (*TurnResult, error)
}
