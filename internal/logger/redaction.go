package logger

import (
	"fmt"
	"io"
	"regexp"
)

const redacted = "[REDACTED]"

// redactionRule replaces a secret. When the pattern has a capture group the
// first group, usually a key name, is kept in front of the marker.
type redactionRule struct {
	name string
	re   *regexp.Regexp
}

func (r redactionRule) apply(s string) string {
	if r.re.NumSubexp() == 0 {
		return r.re.ReplaceAllLiteralString(s, redacted)
	}
	return r.re.ReplaceAllString(s, "${1}"+redacted)
}

// Redactor masks model API keys and other credentials before they reach a log
type Redactor struct {
	rules []redactionRule
}

// NewRedactor creates a redactor with the built-in rules
func NewRedactor() *Redactor {
	return &Redactor{rules: []redactionRule{
		{"anthropic_key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
		{"openai_key", regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`)},
		{"provider_env", regexp.MustCompile(`((?:ANTHROPIC|OPENAI)_API_KEY=)[^\s"']+`)},
		{"api_key_header", regexp.MustCompile(`(?i)(x-api-key["']?\s*[:=]\s*["']?)[^\s"']+`)},
		{"bearer", regexp.MustCompile(`(Bearer\s+)[A-Za-z0-9._~+/=-]+`)},
		{"password", regexp.MustCompile(`(?i)((?:password|passwd|pwd)["']?\s*[:=]\s*["']?)[^\s"']+`)},
		{"token", regexp.MustCompile(`(?i)(token["']?\s*[:=]\s*["']?)[A-Za-z0-9._-]{20,}`)},
		{"secret", regexp.MustCompile(`(?i)(secret["']?\s*[:=]\s*["']?)[^\s"']+`)},
		{"aws_access_key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	}}
}

// AddPattern adds a rule that replaces every match of pattern
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid redaction pattern: %w", err)
	}
	r.rules = append(r.rules, redactionRule{name: "custom", re: re})
	return nil
}

// Redact returns s with every secret masked
func (r *Redactor) Redact(s string) string {
	for _, rule := range r.rules {
		s = rule.apply(s)
	}
	return s
}

// Wrap returns a writer that redacts everything written through it
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{writer: w, redactor: r}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

// Write reports len(p) on success so callers never see a short write when
// redaction changes the length.
func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.writer, w.redactor.Redact(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
