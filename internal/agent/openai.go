package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fundsight/analyst/internal/config"
	"github.com/fundsight/analyst/internal/models"
	"github.com/fundsight/analyst/internal/tools"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared/constant"
)

// OpenAIDecider backs the loop with the OpenAI Chat Completions API.
type OpenAIDecider struct {
	client       openai.Client
	model        string
	maxTokens    int
	temperature  float64
	systemPrompt string
}

func NewOpenAIDecider(cfg config.ModelConfig, systemPrompt string) *OpenAIDecider {
	model := cfg.Name
	if model == "" {
		model = config.DefaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIDecider{
		client:       openai.NewClient(opts...),
		model:        model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		systemPrompt: systemPrompt,
	}
}

// Decide implements Decider.
func (d *OpenAIDecider) Decide(ctx context.Context, history []models.Turn, agentTools []tools.Tool) (*Decision, error) {
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(d.model),
		Messages:            openAIMessages(d.systemPrompt, history),
		MaxCompletionTokens: openai.Int(int64(d.maxTokens)),
		Temperature:         openai.Float(d.temperature),
	}
	if len(agentTools) > 0 {
		params.Tools = openAITools(agentTools)
	}

	resp, err := d.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completions: no choices")
	}

	choice := resp.Choices[0]
	dec := &Decision{
		Text:       choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: models.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		raw := json.RawMessage(tc.Function.Arguments)
		if !json.Valid(raw) {
			raw = json.RawMessage("{}")
		}
		dec.ToolCalls = append(dec.ToolCalls, models.ToolCall{
			ID:       tc.ID,
			Name:     tc.Function.Name,
			Argument: tools.ArgumentFromJSON(raw),
			Raw:      raw,
		})
	}
	return dec, nil
}

func openAITools(agentTools []tools.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, len(agentTools))
	for i, t := range agentTools {
		var description param.Opt[string]
		if t.Description != "" {
			description = param.NewOpt(t.Description)
		}
		out[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: description,
			Parameters:  t.InputSchema,
		})
	}
	return out
}

func openAIMessages(systemPrompt string, history []models.Turn) []openai.ChatCompletionMessageParamUnion {
	var msgs []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	for _, t := range history {
		switch t.Role {
		case models.RoleTool:
			msgs = append(msgs, openai.ToolMessage(toolContent(t), t.ToolCallID))
		case models.RoleAssistant:
			asst := openai.ChatCompletionAssistantMessageParam{}
			if t.Content != "" {
				asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(t.Content),
				}
			}
			for _, c := range t.ToolCalls {
				args := string(c.Raw)
				if args == "" {
					args = "{}"
				}
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: c.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      c.Name,
							Arguments: args,
						},
						Type: constant.ValueOf[constant.Function](),
					},
				})
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		default:
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}
	return msgs
}
