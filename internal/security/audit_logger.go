package security

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs one event per answered (or failed) query. Prompts are
// hashed so the log never carries the user's text.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// QueryEvent is what gets recorded for a query.
type QueryEvent struct {
	QueryID         string
	Prompt          string
	ToolsUsed       []string
	RoundTrips      int
	ExecutionTimeMs int64
	Err             error
}

// LogQuery records a query event.
func (a *AuditLogger) LogQuery(ev QueryEvent) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "query_audit").
		Str("query_id", ev.QueryID).
		Str("prompt_hash", hashStr(ev.Prompt)[:16]).
		Str("tools_used", strings.Join(ev.ToolsUsed, ",")).
		Int("round_trips", ev.RoundTrips).
		Int64("execution_time_ms", ev.ExecutionTimeMs).
		Bool("success", ev.Err == nil)

	if ev.Err != nil {
		evt = evt.Str("error", ev.Err.Error())
	}
	evt.Msg("audit")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
