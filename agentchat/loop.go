package agentchat

import (
	"context"
	"errors"
	"strings"

	"github.com/martinemde/parley/enginellm"
)

const (
	// DefaultMaxRounds bounds how many completion rounds one turn may
	// consume before the loop settles for the best partial answer.
	DefaultMaxRounds = 5

	// DefaultFallbackAnswer is committed and streamed when a turn ends
	// with no answer text at all.
	DefaultFallbackAnswer = "I could not generate a response"

	// DefaultLoopWindow is the tool call window inspected for repeating
	// patterns before granting the engine another round.
	DefaultLoopWindow = 6
)

// ErrEmptyMessage rejects a turn whose message is empty or whitespace.
var ErrEmptyMessage = errors.New("message must not be empty")

// TurnRequest is one user turn submitted to the loop.
type TurnRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Validate checks the request before any session state changes.
func (r TurnRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// LoopConfig tunes the orchestration loop. The zero value gets sensible
// defaults from NewLoop.
type LoopConfig struct {
	// MaxRounds caps completion rounds per turn.
	MaxRounds int

	// FallbackAnswer replaces an empty final answer.
	FallbackAnswer string

	// SystemPrompt, when set, is prepended to every engine request. It
	// is never committed to session history.
	SystemPrompt string

	// TokenChunkSize is the rune count per synthesized token event when
	// the engine did not stream. Defaults to 1.
	TokenChunkSize int

	// EventBuffer sizes the per-turn event channel.
	EventBuffer int

	// LoopWindow is the repeated-call detection window. Zero disables
	// detection.
	LoopWindow int

	// CharLimits and LineLimits override per-tool truncation of the
	// engine-facing copy of tool output.
	CharLimits map[string]int
	LineLimits map[string]int
}

// Loop orchestrates turns: it validates requests, leases the session,
// drives the engine through bounded completion rounds, executes tool
// calls, and commits the turn's messages. One turn produces one event
// stream ending in exactly one done event.
type Loop struct {
	engine   Engine
	store    *Store
	registry *ToolRegistry
	config   LoopConfig
	streamer *TextStreamer
}

// NewLoop creates a Loop. A nil registry means the engine is offered no
// tools.
func NewLoop(engine Engine, store *Store, registry *ToolRegistry, config LoopConfig) *Loop {
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultMaxRounds
	}
	if config.FallbackAnswer == "" {
		config.FallbackAnswer = DefaultFallbackAnswer
	}
	if config.LoopWindow == 0 {
		config.LoopWindow = DefaultLoopWindow
	}
	if registry == nil {
		registry = NewToolRegistry()
	}
	return &Loop{
		engine:   engine,
		store:    store,
		registry: registry,
		config:   config,
		streamer: NewTextStreamer(config.TokenChunkSize),
	}
}

// Store exposes the loop's session store for history reads.
func (l *Loop) Store() *Store {
	return l.store
}

// Run starts one turn. It validates the request and leases the session
// synchronously, so a bad request or a busy session fails before any
// state changes and before any event is produced. On success the turn
// runs in the background and Run returns the emitter the transport
// consumes until the done event closes it.
func (l *Loop) Run(ctx context.Context, req TurnRequest) (*EventEmitter, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lease, err := l.store.Acquire(req.SessionID)
	if err != nil {
		return nil, err
	}

	emitter := NewEventEmitter(lease.SessionID(), l.config.EventBuffer)
	go l.runTurn(ctx, lease, req, emitter)
	return emitter, nil
}

// runTurn executes the round loop for one leased session. It owns the
// emitter's producer side and always terminates the stream with a single
// done event.
func (l *Loop) runTurn(ctx context.Context, lease *SessionLease, req TurnRequest, emitter *EventEmitter) {
	defer lease.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-emitter.Cancelled():
			cancel()
		case <-ctx.Done():
		}
	}()

	var usage enginellm.Usage
	defer func() {
		emitter.Emit(DoneEvent(&usage))
		emitter.Close()
	}()

	// The user message is committed before the first round so a failed
	// turn still records what the user said.
	lease.Append(NewUserMessage(req.Message))
	working := lease.History()
	if l.config.SystemPrompt != "" {
		working = append([]Message{NewSystemMessage(l.config.SystemPrompt)}, working...)
	}

	var transcript []Message
	finalText := ""
	finalStreamed := false

	if driver, ok := l.engine.(TurnDriver); ok {
		// The engine owns the tool loop; this loop is a pass-through.
		result, err := driver.RunTurn(ctx, TurnInput{
			Messages:   working,
			Registry:   l.registry,
			Emit:       emitter.Emit,
			MaxRounds:  l.config.MaxRounds,
			LoopWindow: l.config.LoopWindow,
			CharLimits: l.config.CharLimits,
			LineLimits: l.config.LineLimits,
		})
		if err != nil {
			emitter.Emit(ErrorEvent(err.Error()))
			return
		}
		usage = result.Usage
		transcript = result.Transcript
		finalText = result.FinalText
		finalStreamed = result.Streamed

		l.finishTurn(lease, emitter, transcript, finalText, finalStreamed)
		return
	}

	for round := 0; round < l.config.MaxRounds; round++ {
		completion, err := l.engine.Complete(ctx, CompletionRequest{
			Messages: working,
			Tools:    l.registry.Definitions(),
			Emit:     emitter.Emit,
		})
		if err != nil {
			emitter.Emit(ErrorEvent(err.Error()))
			return
		}
		usage = usage.Add(completion.Usage)

		if len(completion.ToolCalls) == 0 {
			finalText = completion.Text
			finalStreamed = completion.Streamed
			break
		}

		// Tool round. Text alongside tool calls is kept as the best
		// partial answer in case the budget runs out.
		if completion.Text != "" {
			finalText = completion.Text
			finalStreamed = completion.Streamed
		}

		callMsg := NewToolCallMessage(completion.Text, completion.ToolCalls)
		transcript = append(transcript, callMsg)
		working = append(working, callMsg)

		for _, call := range completion.ToolCalls {
			emitter.Emit(ToolCallEvent(call.Name, call.Arguments))
			output, isError := executeTool(ctx, l.registry, call)
			emitter.Emit(ToolResultEvent(call.Name, output, isError))

			fed := TruncateToolOutput(output, call.Name, l.config.CharLimits, l.config.LineLimits)
			resultMsg := NewToolResultMessage(call.ID, fed, isError)
			transcript = append(transcript, resultMsg)
			working = append(working, resultMsg)
		}

		if l.config.LoopWindow > 0 && DetectRepeatedCalls(working, l.config.LoopWindow) {
			break
		}
	}

	l.finishTurn(lease, emitter, transcript, finalText, finalStreamed)
}

// finishTurn settles a turn's answer: substitute the fallback when no
// text was produced, stream whatever the engine did not stream itself,
// and commit the transcript plus the final assistant message.
func (l *Loop) finishTurn(lease *SessionLease, emitter *EventEmitter, transcript []Message, finalText string, finalStreamed bool) {
	if finalText == "" {
		finalText = l.config.FallbackAnswer
		finalStreamed = false
	}
	if !finalStreamed {
		l.streamer.Stream(finalText, emitter)
	}

	transcript = append(transcript, NewAssistantMessage(finalText))
	lease.Append(transcript...)
}
