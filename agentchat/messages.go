package agentchat

import (
	"time"

	"github.com/martinemde/parley/enginellm"
)

// Role identifies who produced a message in a session.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single entry in a session's conversation log. An assistant
// message may carry the tool calls it requested; a tool message links back
// to the call it answers through ToolCallID.
type Message struct {
	Role       Role                 `json:"role"`
	Content    string               `json:"content"`
	ToolCalls  []enginellm.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string               `json:"tool_call_id,omitempty"`
	IsError    bool                 `json:"is_error,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// NewToolCallMessage creates an assistant message recording requested
// tool calls alongside any text the model produced in the same round.
func NewToolCallMessage(content string, calls []enginellm.ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls, Timestamp: time.Now()}
}

// NewToolResultMessage creates a tool result message.
func NewToolResultMessage(toolCallID, content string, isError bool) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID, IsError: isError, Timestamp: time.Now()}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now()}
}

// ToEngineMessages converts a message sequence into the completion
// engine's wire form.
func ToEngineMessages(history []Message) []enginellm.Message {
	var messages []enginellm.Message
	for _, m := range history {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, enginellm.SystemMessage(m.Content))
		case RoleUser:
			messages = append(messages, enginellm.UserMessage(m.Content))
		case RoleAssistant:
			msg := enginellm.AssistantMessage(m.Content)
			for _, tc := range m.ToolCalls {
				msg.Content = append(msg.Content,
					enginellm.ToolCallPart(tc.ID, tc.Name, tc.Arguments))
			}
			messages = append(messages, msg)
		case RoleTool:
			messages = append(messages,
				enginellm.ToolResultMessage(m.ToolCallID, m.Content, m.IsError))
		}
	}
	return messages
}
