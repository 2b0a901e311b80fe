package agentchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/martinemde/parley/enginellm"
)

// ToolExecutor is the function signature for tool execution. Executors
// return an error for internal failures; the loop converts it to a
// descriptive tool result instead of aborting the round.
type ToolExecutor func(ctx context.Context, arguments json.RawMessage) (string, error)

// RegisteredTool pairs a tool definition with its executor.
type RegisteredTool struct {
	Definition enginellm.ToolDefinition
	Executor   ToolExecutor
}

// ToolRegistry manages tool registration and lookup.
type ToolRegistry struct {
	tools map[string]*RegisteredTool
	mu    sync.RWMutex
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*RegisteredTool),
	}
}

// Register adds or replaces a tool in the registry.
func (r *ToolRegistry) Register(tool RegisteredTool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Definition.Name] = &tool
}

// Unregister removes a tool from the registry.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a registered tool by name, or nil if not found.
func (r *ToolRegistry) Get(name string) *RegisteredTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns all tool definitions for engine requests.
func (r *ToolRegistry) Definitions() []enginellm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]enginellm.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition)
	}
	return defs
}

// Names returns the names of all registered tools.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ErrUnknownTool is returned by Execute for a tool call naming no
// registered tool.
var ErrUnknownTool = errors.New("unknown tool")

// Execute runs one tool call through the registry.
func (r *ToolRegistry) Execute(ctx context.Context, call enginellm.ToolCall) (string, error) {
	registered := r.Get(call.Name)
	if registered == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	return registered.Executor(ctx, call.Arguments)
}

// executeTool absorbs every Execute failure into descriptive result text
// with isError set, so a misbehaving tool never aborts the round and the
// engine gets a chance to recover.
func executeTool(ctx context.Context, registry *ToolRegistry, call enginellm.ToolCall) (output string, isError bool) {
	result, err := registry.Execute(ctx, call)
	if err != nil {
		if errors.Is(err, ErrUnknownTool) {
			return fmt.Sprintf("Unknown tool: %s", call.Name), true
		}
		return fmt.Sprintf("Tool error (%s): %v", call.Name, err), true
	}
	return result, false
}

// ParseToolArguments unmarshals tool call arguments into a map for
// validation and access.
func ParseToolArguments(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

// GetStringArg extracts a string argument from parsed tool arguments.
func GetStringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetIntArg extracts an integer argument from parsed tool arguments.
func GetIntArg(args map[string]interface{}, key string) (int, bool) {
	f, ok := GetFloatArg(args, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// GetFloatArg extracts a numeric argument from parsed tool arguments.
func GetFloatArg(args map[string]interface{}, key string) (float64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
