package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/harun/smolcc/pkg/agent"
)

const banner = `smolcc %s
Working directory: %s
Model: %s
Type "exit" or "quit" to end the session. Ctrl-C interrupts the current request.

`

// runOnce answers a single query and ends the session. Ctrl-C ends it
// with ErrInterrupted.
func (a *app) runOnce(ctx context.Context, query string) error {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := a.controller.Submit(runCtx, query)
	a.controller.Exit()

	if err != nil {
		if runCtx.Err() != nil {
			fmt.Fprintln(a.streams.err, "Interrupted.")
			return ErrInterrupted
		}
		return err
	}

	a.printOutcome(outcome)
	return nil
}

// runInteractive reads requests until exit, quit or end of input. Ctrl-C
// during a request abandons it; Ctrl-C at the prompt ends the session.
func (a *app) runInteractive(ctx context.Context, first string) error {
	fmt.Fprintf(a.streams.out, banner, version, a.settings.WorkingDir, a.settings.Model)

	pending := first
	for {
		line := pending
		pending = ""

		if line == "" {
			fmt.Fprint(a.streams.out, "> ")

			readCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			input, err := a.reader.ReadLine(readCtx)
			interrupted := readCtx.Err() != nil && ctx.Err() == nil
			stop()

			switch {
			case interrupted:
				fmt.Fprintln(a.streams.out)
				a.controller.Exit()
				return ErrInterrupted
			case errors.Is(err, io.EOF):
				fmt.Fprintln(a.streams.out)
				a.controller.Exit()
				return nil
			case err != nil:
				a.controller.Exit()
				return err
			}

			line = strings.TrimSpace(input)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			a.controller.Exit()
			return nil
		}

		if err := a.submit(ctx, line); err != nil {
			return err
		}
	}
}

// submit runs one interactive request. An interrupt keeps the session; any
// other error, such as a model failure, ends it.
func (a *app) submit(ctx context.Context, line string) error {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := a.controller.Submit(runCtx, line)
	switch {
	case err == nil:
		a.printOutcome(outcome)
		return nil
	case runCtx.Err() != nil && ctx.Err() == nil:
		fmt.Fprintln(a.streams.err, "Interrupted.")
		return nil
	default:
		return err
	}
}

func (a *app) printOutcome(outcome agent.Outcome) {
	if outcome.Answer != "" {
		fmt.Fprintln(a.streams.out, outcome.Answer)
	}
	if outcome.StepLimitReached {
		fmt.Fprintf(a.streams.err, "Stopped after %d model calls without a final answer.\n", outcome.Steps)
	}
}
