package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundsight/analyst/internal/agent"
	"github.com/fundsight/analyst/internal/config"
	"github.com/fundsight/analyst/internal/security"
	"github.com/fundsight/analyst/internal/service"
	"github.com/fundsight/analyst/internal/shell"
	"github.com/fundsight/analyst/internal/tools"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// DeciderFactory creates the model backend (allows fakes in tests).
type DeciderFactory func(cfg config.ModelConfig) (agent.Decider, error)

// Options carries the injectable dependencies of the root command.
type Options struct {
	DeciderFactory DeciderFactory
	Credential     config.CredentialReader
	Stdin          io.Reader
	Stdout         io.Writer
	Stderr         io.Writer
}

func newRootCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:           "analyst",
		Short:         "analyst - autonomous hedge fund analyst in your terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(Options{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel, stderr)

	read := opts.Credential
	if read == nil {
		if f, ok := stdin.(*os.File); ok {
			read = config.TerminalReader(f, stderr)
		} else {
			read = config.LineReader(stdin, stderr)
		}
	}
	if err := config.EnsureCredential(cfg, read); err != nil {
		return err
	}

	factory := opts.DeciderFactory
	if factory == nil {
		factory = agent.NewDecider
	}

	fmt.Fprintln(stdout, "Initializing Agent... ")
	decider, err := factory(cfg.Model)
	if err != nil {
		return err
	}

	analyst, usage, err := buildAnalyst(cfg, decider, stdout)
	if err != nil {
		return err
	}

	log.Info().
		Str("provider", cfg.Model.Provider).
		Str("model", cfg.Model.Name).
		Int("max_round_trips", cfg.Agent.MaxRoundTrips).
		Int("news_max_results", cfg.News.MaxResults).
		Msg("analyst configuration")

	err = shell.New(analyst, stdin, stdout).Run(ctx)

	total, queries := usage.Total()
	log.Info().
		Int("queries", queries).
		Int64("input_tokens", total.InputTokens).
		Int64("output_tokens", total.OutputTokens).
		Float64("cost_usd", usage.Cost(total)).
		Msg("session finished")
	return err
}

// buildAnalyst wires providers, tools, the loop and the audit components.
func buildAnalyst(cfg *config.Config, decider agent.Decider, trace io.Writer) (*agent.Analyst, *security.UsageTracker, error) {
	yahoo := service.NewYahooService(
		cfg.Providers.YahooBaseURL,
		cfg.Providers.YahooCookieURL,
		cfg.Providers.UserAgent,
		cfg.Providers.Timeout,
	)
	ddg := service.NewDuckDuckGoService(
		cfg.Providers.DuckDuckGoURL,
		cfg.News.Region,
		cfg.Providers.UserAgent,
		cfg.News.RatePerSecond,
		cfg.Providers.Timeout,
	)

	registry := tools.NewRegistry()
	for _, t := range []tools.Tool{
		tools.FundamentalsTool(service.NewCachedFundamentals(yahoo, cfg.Providers.FundamentalsCacheTTL), cfg.Providers.Timeout),
		tools.NewsTool(ddg, cfg.News.MaxResults, cfg.Providers.Timeout),
	} {
		if err := registry.Add(t); err != nil {
			return nil, nil, fmt.Errorf("register tools: %w", err)
		}
	}

	loop := agent.NewLoop(
		agent.NewRetryDecider(decider, cfg.Model.MaxRetries, cfg.Model.Timeout),
		registry,
		cfg.Agent.MaxRoundTrips,
	)
	if cfg.Agent.Verbose {
		loop.WithTrace(trace)
	}

	usage := security.NewUsageTracker(cfg.Audit.InputCostPerMTok, cfg.Audit.OutputCostPerMTok)
	analyst := agent.NewAnalyst(
		loop,
		security.NewPromptValidator(cfg.Agent.MaxPromptLength),
		security.NewAuditLogger(cfg.Audit.Enabled),
		usage,
	)
	return analyst, usage, nil
}

func setupLogger(level string, w io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger()
}
