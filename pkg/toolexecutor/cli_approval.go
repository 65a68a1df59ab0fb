package toolexecutor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// LineReader hands out input lines from one background scanner. A prompt
// that is abandoned does not swallow the next line the user types.
type LineReader struct {
	reader io.Reader
	lines  chan lineResult
	once   sync.Once
}

type lineResult struct {
	line string
	err  error
}

// NewLineReader wraps r for cancellable line reads
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		reader: r,
		lines:  make(chan lineResult),
	}
}

func (l *LineReader) start() {
	go func() {
		scanner := bufio.NewScanner(l.reader)
		for scanner.Scan() {
			l.lines <- lineResult{line: scanner.Text()}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		for {
			l.lines <- lineResult{err: err}
		}
	}()
}

// ReadLine returns the next line without its newline. It returns io.EOF once
// the input is exhausted and ctx.Err() when ctx ends first.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	l.once.Do(l.start)

	select {
	case res := <-l.lines:
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// CLIApprovalHandler handles approval requests via CLI prompts
type CLIApprovalHandler struct {
	reader *LineReader
	writer io.Writer
}

// NewCLIApprovalHandler creates a new CLI approval handler reading from reader
func NewCLIApprovalHandler(reader io.Reader, writer io.Writer) *CLIApprovalHandler {
	return NewSharedCLIApprovalHandler(NewLineReader(reader), writer)
}

// NewSharedCLIApprovalHandler creates a handler that reads answers from the
// same LineReader the interactive loop reads requests from.
func NewSharedCLIApprovalHandler(reader *LineReader, writer io.Writer) *CLIApprovalHandler {
	return &CLIApprovalHandler{
		reader: reader,
		writer: writer,
	}
}

// RequestApproval prompts the user for approval via CLI
func (c *CLIApprovalHandler) RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error) {
	c.displayApprovalRequest(req)

	line, err := c.reader.ReadLine(ctx)
	if err != nil {
		if ctx.Err() != nil {
			c.displayTimeout()
			return ApprovalResponse{
				Approved: false,
				Reason:   "timeout",
			}, ctx.Err()
		}
		if err == io.EOF {
			return ApprovalResponse{
				Approved: false,
				Reason:   "no input provided",
			}, nil
		}
		return ApprovalResponse{}, fmt.Errorf("failed to read input: %w", err)
	}

	return c.parseAnswer(req, line), nil
}

// displayApprovalRequest displays the approval request to the user
func (c *CLIApprovalHandler) displayApprovalRequest(req ApprovalRequest) {
	fmt.Fprintln(c.writer, "")
	fmt.Fprintln(c.writer, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(c.writer, "║              🔐 TOOL APPROVAL REQUIRED                        ║")
	fmt.Fprintln(c.writer, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(c.writer, "")
	fmt.Fprintf(c.writer, "  Tool:       %s\n", req.Tool)

	if req.Cwd != "" {
		fmt.Fprintf(c.writer, "  Directory:  %s\n", req.Cwd)
	}

	if req.Timeout > 0 {
		fmt.Fprintf(c.writer, "  Timeout:    %v\n", req.Timeout)
	}

	if len(req.Arguments) > 0 {
		fmt.Fprintln(c.writer, "  Arguments:")
		keys := make([]string, 0, len(req.Arguments))
		for key := range req.Arguments {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(c.writer, "    %s: %s\n", key, formatArgument(req.Arguments[key]))
		}
	}

	fmt.Fprintln(c.writer, "")
	fmt.Fprint(c.writer, "  Allow this call? [y/N]: ")
}

// parseAnswer interprets the user's reply; anything but yes denies
func (c *CLIApprovalHandler) parseAnswer(req ApprovalRequest, line string) ApprovalResponse {
	input := strings.TrimSpace(strings.ToLower(line))

	var response ApprovalResponse
	switch input {
	case "y", "yes":
		response = ApprovalResponse{
			Approved: true,
			Reason:   "approved by user",
		}
		c.displayApproved()

		log.Info().
			Str("tool", req.Tool).
			Msg("Call approved via CLI")

	case "n", "no", "":
		response = ApprovalResponse{
			Approved: false,
			Reason:   "denied by user",
		}
		c.displayDenied()

		log.Info().
			Str("tool", req.Tool).
			Msg("Call denied via CLI")

	default:
		response = ApprovalResponse{
			Approved: false,
			Reason:   fmt.Sprintf("invalid input: %s", input),
		}
		c.displayInvalidInput(input)

		log.Warn().
			Str("tool", req.Tool).
			Str("input", input).
			Msg("Invalid input for approval")
	}

	return response
}

// formatArgument renders one argument on a single line, eliding long values
func formatArgument(v interface{}) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprintf("%v", val)
		} else {
			s = string(data)
		}
	}

	const maxLen = 500
	lines := strings.Split(s, "\n")
	if len(lines) > 1 {
		s = lines[0] + fmt.Sprintf(" … (+%d lines)", len(lines)-1)
	}
	if len(s) > maxLen {
		s = s[:maxLen] + " …"
	}
	return s
}

// displayApproved displays approval confirmation
func (c *CLIApprovalHandler) displayApproved() {
	fmt.Fprintln(c.writer, "")
	fmt.Fprintln(c.writer, "  ✅ Call APPROVED")
	fmt.Fprintln(c.writer, "")
}

// displayDenied displays denial confirmation
func (c *CLIApprovalHandler) displayDenied() {
	fmt.Fprintln(c.writer, "")
	fmt.Fprintln(c.writer, "  ❌ Call DENIED")
	fmt.Fprintln(c.writer, "")
}

// displayInvalidInput displays invalid input message
func (c *CLIApprovalHandler) displayInvalidInput(input string) {
	fmt.Fprintln(c.writer, "")
	fmt.Fprintf(c.writer, "  ⚠️  Invalid input: %s (defaulting to DENY)\n", input)
	fmt.Fprintln(c.writer, "")
}

// displayTimeout displays timeout message
func (c *CLIApprovalHandler) displayTimeout() {
	fmt.Fprintln(c.writer, "")
	fmt.Fprintln(c.writer, "  ⏱️  Approval request TIMED OUT")
	fmt.Fprintln(c.writer, "")
}
