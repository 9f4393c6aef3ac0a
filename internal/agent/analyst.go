package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/fundsight/analyst/internal/security"
	"github.com/rs/zerolog/log"
)

// Analyst answers one user query end to end: validate the prompt, run the
// loop, then record audit and usage.
type Analyst struct {
	loop        *Loop
	promptVal   *security.PromptValidator
	auditLogger *security.AuditLogger
	usage       *security.UsageTracker
}

func NewAnalyst(
	loop *Loop,
	promptVal *security.PromptValidator,
	auditLogger *security.AuditLogger,
	usage *security.UsageTracker,
) *Analyst {
	return &Analyst{
		loop:        loop,
		promptVal:   promptVal,
		auditLogger: auditLogger,
		usage:       usage,
	}
}

// Answer returns the model's final answer for query.
func (a *Analyst) Answer(ctx context.Context, query string) (string, error) {
	if vr := a.promptVal.Validate(query); !vr.Valid {
		return "", fmt.Errorf("invalid prompt: %s", vr.Message)
	}

	start := time.Now()
	res, err := a.loop.Run(ctx, query)
	elapsed := time.Since(start)

	a.usage.Record(res.QueryID, res.Usage)
	a.auditLogger.LogQuery(security.QueryEvent{
		QueryID:         res.QueryID,
		Prompt:          query,
		ToolsUsed:       res.ToolsUsed,
		RoundTrips:      res.RoundTrips,
		ExecutionTimeMs: elapsed.Milliseconds(),
		Err:             err,
	})

	if err != nil {
		return "", err
	}

	log.Debug().
		Str("query_id", res.QueryID).
		Strs("tools_used", res.ToolsUsed).
		Int("round_trips", res.RoundTrips).
		Dur("duration", elapsed).
		Msg("query answered")

	return res.Answer, nil
}
