package agentchat

import (
	"context"

	"github.com/martinemde/parley/enginellm"
)

// ManualEngine produces each round with a single blocking completion.
// It never streams; the loop synthesizes token events from the returned
// text. Requests are retried per the configured policy before a failure
// surfaces as an engine error.
type ManualEngine struct {
	client *enginellm.Client
	model  string
	policy enginellm.RetryPolicy

	temperature *float64
	maxTokens   *int
}

// ManualEngineOption configures a ManualEngine.
type ManualEngineOption func(*ManualEngine)

// WithManualRetryPolicy overrides the default retry policy.
func WithManualRetryPolicy(policy enginellm.RetryPolicy) ManualEngineOption {
	return func(e *ManualEngine) {
		e.policy = policy
	}
}

// WithManualTemperature sets the sampling temperature.
func WithManualTemperature(t float64) ManualEngineOption {
	return func(e *ManualEngine) {
		e.temperature = &t
	}
}

// WithManualMaxTokens caps the response length per round.
func WithManualMaxTokens(n int) ManualEngineOption {
	return func(e *ManualEngine) {
		e.maxTokens = &n
	}
}

// NewManualEngine creates a ManualEngine backed by the given client and
// model.
func NewManualEngine(client *enginellm.Client, model string, opts ...ManualEngineOption) *ManualEngine {
	e := &ManualEngine{
		client: client,
		model:  model,
		policy: enginellm.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Complete runs one blocking completion round.
func (e *ManualEngine) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	request := enginellm.Request{
		Model:       e.model,
		Messages:    ToEngineMessages(req.Messages),
		ToolDefs:    req.Tools,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	}

	resp, err := enginellm.Retry(ctx, e.policy, func(ctx context.Context) (*enginellm.Response, error) {
		return e.client.Complete(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	outcome, err := enginellm.DecodeOutcome(resp)
	if err != nil {
		return nil, err
	}

	return &Completion{
		Text:      outcome.Text,
		ToolCalls: outcome.ToolCalls,
		Usage:     resp.Usage,
	}, nil
}
