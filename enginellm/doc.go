// Package enginellm provides a provider-agnostic completion engine client.
//
// The package defines one contract for "given a message list and a set of
// callable tool schemas, produce either a text answer or a structured tool
// invocation request". Provider backends implement ProviderAdapter; the
// Client routes requests by provider name and applies middleware around
// each call. The GollmAdapter backs the contract with gollm, covering the
// OpenAI- and Anthropic-compatible APIs.
//
// Responses are classified exactly once at this boundary: DecodeOutcome
// turns a raw Response into a tagged Outcome (final answer or tool call
// requests), coercing malformed tool call arguments where possible.
// Callers above this package never inspect provider-specific shapes.
package enginellm
