package models

import "encoding/json"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation request emitted by the model.
type ToolCall struct {
	ID       string
	Name     string
	Argument string
	// Raw is the argument object exactly as the model sent it; kept so the
	// history can be replayed to the provider.
	Raw json.RawMessage
}

// Turn is one message of a single query's conversation. Assistant turns may
// carry ToolCalls; tool turns carry the ID and name of the call they answer.
type Turn struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
	IsError    bool
}

// Usage is token accounting reported by the model backend.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates another usage report.
func (u *Usage) Add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
}
