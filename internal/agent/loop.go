package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fundsight/analyst/internal/config"
	"github.com/fundsight/analyst/internal/models"
	"github.com/fundsight/analyst/internal/tools"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Result is the outcome of one query.
type Result struct {
	QueryID    string
	Answer     string
	ToolsUsed  []string
	RoundTrips int
	Usage      models.Usage
	// Errors collects non-fatal loop errors such as unknown tool names.
	Errors  []error
	History []models.Turn
}

// Loop runs the tool-calling conversation for a single query:
// ask the model, dispatch any requested tools, feed their output back, and
// stop at the first response without tool calls.
type Loop struct {
	decider       Decider
	registry      *tools.Registry
	maxRoundTrips int
	trace         io.Writer
}

func NewLoop(decider Decider, registry *tools.Registry, maxRoundTrips int) *Loop {
	if maxRoundTrips < 1 {
		maxRoundTrips = config.DefaultMaxRoundTrips
	}
	return &Loop{
		decider:       decider,
		registry:      registry,
		maxRoundTrips: maxRoundTrips,
	}
}

// WithTrace echoes every tool invocation and its output to w.
func (l *Loop) WithTrace(w io.Writer) *Loop {
	l.trace = w
	return l
}

// Run answers query. History lives only for this call.
func (l *Loop) Run(ctx context.Context, query string) (*Result, error) {
	res := &Result{QueryID: uuid.NewString()}
	logger := log.With().Str("query_id", res.QueryID).Logger()

	if strings.TrimSpace(query) == "" {
		return res, fmt.Errorf("empty query")
	}

	history := []models.Turn{{Role: models.RoleUser, Content: query}}
	descriptors := l.registry.List()

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			res.History = history
			return res, err
		}

		dec, err := l.decider.Decide(ctx, history, descriptors)
		if err != nil {
			res.History = history
			if errors.Is(err, models.ErrModelInvocation) {
				return res, err
			}
			return res, fmt.Errorf("%w: %w", models.ErrModelInvocation, err)
		}
		res.Usage.Add(dec.Usage)

		logger.Debug().
			Int("round", round).
			Str("stop_reason", dec.StopReason).
			Str("text_preview", truncate(dec.Text, 80)).
			Int("tool_calls", len(dec.ToolCalls)).
			Msg("agent iteration")

		if dec.Final() {
			res.Answer = dec.Text
			res.RoundTrips = round
			res.History = history
			return res, nil
		}

		if round >= l.maxRoundTrips {
			res.RoundTrips = round
			res.History = history
			return res, fmt.Errorf("%w: model still requesting tools after %d round trips",
				models.ErrRoundTripLimitExceeded, l.maxRoundTrips)
		}

		history = append(history, models.Turn{
			Role:      models.RoleAssistant,
			Content:   dec.Text,
			ToolCalls: dec.ToolCalls,
		})

		for _, call := range dec.ToolCalls {
			res.ToolsUsed = append(res.ToolsUsed, call.Name)
			l.tracef("\n> Invoking `%s` with `%s`\n", call.Name, call.Argument)

			output, dispatchErr := l.registry.Dispatch(ctx, call.Name, call.Argument)
			if dispatchErr != nil {
				logger.Warn().Err(dispatchErr).Str("tool", call.Name).Msg("tool dispatch failed")
				res.Errors = append(res.Errors, dispatchErr)
				output = "Error: " + dispatchErr.Error()
			}
			l.tracef("%s\n", output)

			history = append(history, models.Turn{
				Role:       models.RoleTool,
				Content:    output,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				IsError:    dispatchErr != nil,
			})
		}
	}
}

func (l *Loop) tracef(format string, args ...interface{}) {
	if l.trace != nil {
		fmt.Fprintf(l.trace, format, args...)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
