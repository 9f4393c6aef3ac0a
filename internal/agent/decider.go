package agent

import (
	"context"

	"github.com/fundsight/analyst/internal/models"
	"github.com/fundsight/analyst/internal/tools"
)

// Decider is the reasoning model seen by the loop: given the turns so far and
// the available tools it either requests tool calls or produces a final answer.
// Backends translate the neutral history to their own wire format on every call.
type Decider interface {
	Decide(ctx context.Context, history []models.Turn, tools []tools.Tool) (*Decision, error)
}

// Decision is one model response.
type Decision struct {
	Text       string
	ToolCalls  []models.ToolCall
	StopReason string
	Usage      models.Usage
}

// Final reports whether the model answered without requesting any tool.
func (d *Decision) Final() bool {
	return len(d.ToolCalls) == 0
}

// toolContent keeps tool results non-empty; both providers reject blank
// tool messages while an empty search result is legitimate.
func toolContent(t models.Turn) string {
	if t.Content == "" {
		return "(no results)"
	}
	return t.Content
}
