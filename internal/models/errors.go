package models

import "errors"

// Error taxonomy shared by the tools, the reasoning loop and the shell.
// Callers match with errors.Is; producers wrap with fmt.Errorf("...: %w", ...).
var (
	// ErrToolExecution marks a provider or network failure inside a lookup.
	// Tools convert it to text so the model can react to it.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrToolNotFound is returned when the model asks for an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrModelInvocation wraps any failure talking to the reasoning model.
	ErrModelInvocation = errors.New("model invocation failed")

	// ErrConfiguration is fatal at startup (missing credential, bad settings).
	ErrConfiguration = errors.New("configuration error")

	// ErrRoundTripLimitExceeded stops a query whose model never stops calling tools.
	ErrRoundTripLimitExceeded = errors.New("round-trip limit exceeded")
)
