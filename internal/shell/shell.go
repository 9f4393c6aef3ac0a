// Package shell is the interactive read-eval-print loop in front of the analyst.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	rule   = "--------------------------------------------------"
	title  = "   AUTONOMOUS HEDGE FUND ANALYST "
	prompt = "\nUser (You): "
)

// Answerer produces the final answer for one query.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Shell reads one query per line until exit, quit, EOF or cancellation.
type Shell struct {
	runner Answerer
	in     io.Reader
	out    io.Writer
}

// New creates a shell. Answers and query errors both go to out so a
// transcript keeps each error next to its query.
func New(runner Answerer, in io.Reader, out io.Writer) *Shell {
	return &Shell{runner: runner, in: in, out: out}
}

// IsExitCommand reports whether input is exit or quit, in any case.
func IsExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}

type line struct {
	text string
	err  error
	eof  bool
}

// Run blocks until the user leaves. Query failures are printed and the loop
// keeps going; only a read error is returned.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, rule)
	fmt.Fprintln(s.out, title)
	fmt.Fprintln(s.out, rule)
	fmt.Fprintln(s.out, "System Ready. Agent is listening.")

	lines, done := s.readLines()
	defer close(done)

	for {
		fmt.Fprint(s.out, prompt)

		var l line
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case l = <-lines:
		}
		if l.err != nil {
			return fmt.Errorf("read input: %w", l.err)
		}
		if l.eof {
			fmt.Fprintln(s.out)
			return nil
		}

		input := strings.TrimSpace(l.text)
		if input == "" {
			continue
		}
		if IsExitCommand(input) {
			return nil
		}

		fmt.Fprint(s.out, "\n... Agent is thinking (and using tools) ...\n\n")
		answer, err := s.answer(ctx, input)
		if err != nil {
			log.Debug().Err(err).Msg("query failed")
			fmt.Fprintf(s.out, "Error: %v\n", err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		fmt.Fprintf(s.out, "\nAnalyst Report:\n%s\n", answer)
	}
}

// answer runs one query, turning a panic anywhere below into an error so a
// single bad query cannot take the session down.
func (s *Shell) answer(ctx context.Context, input string) (answer string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("panic recovered")
			err = fmt.Errorf("internal error: %v", rec)
		}
	}()
	return s.runner.Answer(ctx, input)
}

// readLines scans input on its own goroutine so a blocked read does not keep
// Run from noticing cancellation. Closing done releases the goroutine.
func (s *Shell) readLines() (<-chan line, chan struct{}) {
	lines := make(chan line)
	done := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- line{text: scanner.Text()}:
			case <-done:
				return
			}
		}
		last := line{eof: true}
		if err := scanner.Err(); err != nil {
			last = line{err: err}
		}
		select {
		case lines <- last:
		case <-done:
		}
	}()
	return lines, done
}
