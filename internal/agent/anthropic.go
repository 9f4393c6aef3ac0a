package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fundsight/analyst/internal/config"
	"github.com/fundsight/analyst/internal/models"
	"github.com/fundsight/analyst/internal/tools"
	"github.com/rs/zerolog/log"
)

// AnthropicDecider backs the loop with Anthropic Claude or a compatible
// provider reachable through BaseURL.
type AnthropicDecider struct {
	client       *anthropic.Client
	model        string
	maxTokens    int
	temperature  float64
	systemPrompt string
}

func NewAnthropicDecider(cfg config.ModelConfig, systemPrompt string) *AnthropicDecider {
	model := cfg.Name
	if model == "" {
		model = config.DefaultAnthropicModel
	}
	// Retries are owned by RetryDecider.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicDecider{
		client:       anthropic.NewClient(opts...),
		model:        model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		systemPrompt: systemPrompt,
	}
}

// Decide implements Decider.
func (d *AnthropicDecider) Decide(ctx context.Context, history []models.Turn, agentTools []tools.Tool) (*Decision, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(d.model)),
		MaxTokens:   anthropic.F(int64(d.maxTokens)),
		Messages:    anthropic.F(anthropicMessages(history)),
		Temperature: anthropic.F(d.temperature),
	}
	if len(agentTools) > 0 {
		params.Tools = anthropic.F(anthropicTools(agentTools))
	}
	if d.systemPrompt != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(d.systemPrompt),
		})
	}

	resp, err := d.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	dec := &Decision{
		StopReason: string(resp.StopReason),
		Usage: models.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			dec.Text += b.Text
		case anthropic.ToolUseBlock:
			raw := b.Input
			if !json.Valid(raw) {
				log.Warn().Str("tool", b.Name).Msg("tool input is not valid JSON")
				raw = json.RawMessage("{}")
			}
			dec.ToolCalls = append(dec.ToolCalls, models.ToolCall{
				ID:       b.ID,
				Name:     b.Name,
				Argument: tools.ArgumentFromJSON(raw),
				Raw:      raw,
			})
		}
	}
	return dec, nil
}

func anthropicTools(agentTools []tools.Tool) []anthropic.ToolUnionUnionParam {
	out := make([]anthropic.ToolUnionUnionParam, len(agentTools))
	for i, t := range agentTools {
		schema := map[string]interface{}{
			"type":       "object",
			"properties": t.InputSchema["properties"],
		}
		if required, ok := t.InputSchema["required"]; ok {
			schema["required"] = required
		}
		out[i] = anthropic.ToolParam{
			Name:        anthropic.String(t.Name),
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.F[interface{}](schema),
		}
	}
	return out
}

// anthropicMessages replays the neutral history. Consecutive tool turns are
// folded into one user message, as the Messages API expects all results for
// an assistant turn together.
func anthropicMessages(history []models.Turn) []anthropic.MessageParam {
	var (
		msgs    []anthropic.MessageParam
		results []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			msgs = append(msgs, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, t := range history {
		switch t.Role {
		case models.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(t.ToolCallID, toolContent(t), t.IsError))
		case models.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if t.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t.Content))
			}
			for _, c := range t.ToolCalls {
				input := c.Raw
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropic.NewToolUseBlockParam(c.ID, c.Name, input))
			}
			if len(blocks) > 0 {
				msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			flush()
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	flush()
	return msgs
}
