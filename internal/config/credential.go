package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fundsight/analyst/internal/models"
	"golang.org/x/term"
)

// CredentialReader asks the user for a secret and returns what was typed.
type CredentialReader func(prompt string) (string, error)

// TerminalReader reads the credential from in. When in is a terminal the
// input is not echoed.
func TerminalReader(in *os.File, out io.Writer) CredentialReader {
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
		return readLine(in)
	}
}

// LineReader reads the credential as a plain line from r.
func LineReader(r io.Reader, out io.Writer) CredentialReader {
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		return readLine(r)
	}
}

// readLine consumes r one byte at a time up to and including '\n', so
// whatever follows the key stays in r for the shell.
func readLine(r io.Reader) (string, error) {
	var (
		sb  strings.Builder
		buf [1]byte
	)
	for {
		n, err := r.Read(buf[:])
		if n == 1 {
			sb.WriteByte(buf[0])
			if buf[0] == '\n' {
				return sb.String(), nil
			}
		}
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
	}
}

// EnsureCredential fills Model.APIKey by prompting when neither the config
// nor the environment supplied one. The key lives only in cfg.
func EnsureCredential(cfg *Config, read CredentialReader) error {
	if strings.TrimSpace(cfg.Model.APIKey) != "" {
		return nil
	}
	if read == nil {
		return fmt.Errorf("%w: %s is not set", models.ErrConfiguration, cfg.CredentialEnv())
	}
	key, err := read(fmt.Sprintf("Enter your %s API key: ", providerLabel(cfg.Model.Provider)))
	if err != nil {
		return fmt.Errorf("%w: read credential: %v", models.ErrConfiguration, err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: %s is not set and no key was entered", models.ErrConfiguration, cfg.CredentialEnv())
	}
	cfg.Model.APIKey = key
	return nil
}

func providerLabel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OpenAI"
	default:
		return "Anthropic"
	}
}
