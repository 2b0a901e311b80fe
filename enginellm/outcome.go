package enginellm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OutcomeKind discriminates what a completion asks the caller to do next.
type OutcomeKind string

const (
	// OutcomeFinal means the model produced a final textual answer.
	OutcomeFinal OutcomeKind = "final"
	// OutcomeToolCalls means the model requested one or more tool
	// invocations before it can answer.
	OutcomeToolCalls OutcomeKind = "tool_calls"
)

// Outcome is the decoded shape of a completion: either a final answer or
// a list of tool call requests. Callers inspect Outcome instead of raw
// provider-specific response structures.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
}

// DecodeOutcome classifies a response exactly once. Tool call arguments
// are normalized through CoerceArguments; a call whose arguments cannot
// be coerced into a JSON object makes the whole decode fail.
func DecodeOutcome(resp *Response) (Outcome, error) {
	calls := resp.ToolCallsFromResponse()
	if len(calls) == 0 {
		return Outcome{Kind: OutcomeFinal, Text: resp.Text()}, nil
	}

	normalized := make([]ToolCall, len(calls))
	for i, tc := range calls {
		args, err := CoerceArguments(tc)
		if err != nil {
			return Outcome{}, err
		}
		tc.Arguments = args
		normalized[i] = tc
	}
	return Outcome{Kind: OutcomeToolCalls, Text: resp.Text(), ToolCalls: normalized}, nil
}

// CoerceArguments normalizes tool call arguments to a JSON object.
// Providers occasionally hand back arguments as a quoted JSON string or
// leave them only in the raw textual form; both are repaired best-effort
// before the call is rejected.
func CoerceArguments(tc ToolCall) (json.RawMessage, error) {
	if args, ok := asJSONObject(tc.Arguments); ok {
		return args, nil
	}

	// A JSON string whose contents are themselves a JSON object.
	var quoted string
	if err := json.Unmarshal(tc.Arguments, &quoted); err == nil {
		if args, ok := asJSONObject(json.RawMessage(quoted)); ok {
			return args, nil
		}
	}

	// Fall back to the raw textual payload, quoted or not.
	if tc.RawArguments != "" {
		if args, ok := asJSONObject(json.RawMessage(tc.RawArguments)); ok {
			return args, nil
		}
		if unquoted, err := strconv.Unquote(tc.RawArguments); err == nil {
			if args, ok := asJSONObject(json.RawMessage(unquoted)); ok {
				return args, nil
			}
		}
	}

	return nil, &InvalidToolCallError{SDKError: SDKError{
		Message: fmt.Sprintf("tool call %s(%s): arguments are not a JSON object", tc.Name, tc.ID),
	}}
}

// asJSONObject reports whether raw holds a JSON object, returning a
// trimmed copy when it does. An empty payload counts as the empty object.
func asJSONObject(raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`), true
	}
	if trimmed[0] != '{' {
		return nil, false
	}
	var probe map[string]interface{}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, false
	}
	return trimmed, true
}
