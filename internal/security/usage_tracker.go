package security

import (
	"github.com/fundsight/analyst/internal/models"
	"github.com/rs/zerolog/log"
)

const tokensPerMillion = 1_000_000.0

// UsageTracker accumulates model token usage for the session and logs an
// estimated cost per query.
type UsageTracker struct {
	inputCostPerMTok  float64
	outputCostPerMTok float64
	total             models.Usage
	queries           int
}

func NewUsageTracker(inputCostPerMTok, outputCostPerMTok float64) *UsageTracker {
	return &UsageTracker{
		inputCostPerMTok:  inputCostPerMTok,
		outputCostPerMTok: outputCostPerMTok,
	}
}

// Cost estimates the USD cost of u.
func (t *UsageTracker) Cost(u models.Usage) float64 {
	return float64(u.InputTokens)/tokensPerMillion*t.inputCostPerMTok +
		float64(u.OutputTokens)/tokensPerMillion*t.outputCostPerMTok
}

// Record adds a query's usage to the session total and logs it.
func (t *UsageTracker) Record(queryID string, u models.Usage) {
	t.total.Add(u)
	t.queries++

	log.Debug().
		Str("event", "model_usage").
		Str("query_id", queryID).
		Int64("input_tokens", u.InputTokens).
		Int64("output_tokens", u.OutputTokens).
		Float64("cost_usd", t.Cost(u)).
		Int64("session_input_tokens", t.total.InputTokens).
		Int64("session_output_tokens", t.total.OutputTokens).
		Msgf("Model usage: %d in / %d out ($%.4f)", u.InputTokens, u.OutputTokens, t.Cost(u))
}

// Total returns the session totals.
func (t *UsageTracker) Total() (models.Usage, int) {
	return t.total, t.queries
}
