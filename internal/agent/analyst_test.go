package agent_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fundsight/analyst/internal/agent"
	"github.com/fundsight/analyst/internal/models"
	"github.com/fundsight/analyst/internal/security"
	"github.com/fundsight/analyst/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyst(t *testing.T, d agent.Decider, maxPrompt int) (*agent.Analyst, *security.UsageTracker) {
	t.Helper()
	usage := security.NewUsageTracker(3, 15)
	loop := agent.NewLoop(d, newRegistry(t, &recordingTool{output: "data"}, &recordingTool{}), 8)
	return agent.NewAnalyst(loop, security.NewPromptValidator(maxPrompt), security.NewAuditLogger(true), usage), usage
}

func TestAnalystAnswer(t *testing.T) {
	d := &scriptedDecider{script: []step{
		callTool("t1", tools.FundamentalsToolName, "AAPL"),
		final("BUY"),
	}}
	a, usage := newAnalyst(t, d, 0)

	answer, err := a.Answer(context.Background(), "Should I buy AAPL?")
	require.NoError(t, err)
	assert.Equal(t, "BUY", answer)

	total, queries := usage.Total()
	assert.Equal(t, 1, queries)
	assert.Equal(t, models.Usage{InputTokens: 30, OutputTokens: 8}, total)
}

func TestAnalystRejectsInvalidPrompt(t *testing.T) {
	d := &scriptedDecider{script: []step{final("unused")}}
	a, _ := newAnalyst(t, d, 10)

	_, err := a.Answer(context.Background(), "   ")
	assert.Error(t, err)

	_, err = a.Answer(context.Background(), strings.Repeat("x", 11))
	assert.Error(t, err)

	assert.Equal(t, 0, d.calls)
}

func TestAnalystPropagatesLoopErrors(t *testing.T) {
	d := &scriptedDecider{script: []step{callTool("t", tools.FundamentalsToolName, "AAPL")}}
	a, usage := newAnalyst(t, d, 0)

	_, err := a.Answer(context.Background(), "loop")
	assert.ErrorIs(t, err, models.ErrRoundTripLimitExceeded)

	_, queries := usage.Total()
	assert.Equal(t, 1, queries, "failed queries are still accounted")
}
