package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Wizard provides an interactive configuration wizard. API keys are never
// asked for; they come from the environment.
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a new configuration wizard
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run asks for the main settings, starting from base
func (w *Wizard) Run(base *Config) (*Config, error) {
	fmt.Fprintln(w.out, "=== smolcc Configuration Wizard ===")
	fmt.Fprintln(w.out)

	cfg := *base
	validator := NewValidator()

	for {
		fmt.Fprintf(w.out, "Model provider (anthropic/openai) [%s]: ", cfg.Model.Provider)
		provider, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if provider == "" {
			break
		}
		if err := validator.ValidateProvider(provider); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		if provider != cfg.Model.Provider {
			cfg.Model.Name = ""
		}
		cfg.Model.Provider = provider
		break
	}

	fmt.Fprintf(w.out, "Model name [%s]: ", cfg.ModelName())
	model, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if model != "" {
		cfg.Model.Name = model
	}

	for {
		fmt.Fprintf(w.out, "Max model calls per request [%d]: ", cfg.Session.MaxSteps)
		steps, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if steps == "" {
			break
		}
		n, err := strconv.Atoi(steps)
		if err != nil || n <= 0 {
			fmt.Fprintln(w.out, "Error: enter a positive number")
			continue
		}
		cfg.Session.MaxSteps = n
		break
	}

	fmt.Fprintf(w.out, "Log level (debug/info/warn/error) [%s]: ", cfg.Logging.Level)
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, keeping %s\n", err, cfg.Logging.Level)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")

	return &cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
