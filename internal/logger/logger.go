package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level     string // debug, info, warn, error
	File      string // log file path, empty for none
	Console   bool   // also log to stderr
	Pretty    bool   // human-readable console output
	Redaction bool   // mask API keys and credentials
	MaxSize   int    // MB before the file rotates, 0 disables rotation
	MaxAge    int    // days rotated files are kept
	Compress  bool   // gzip rotated files
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Pretty:    true,
		Redaction: true,
		MaxSize:   100,
		MaxAge:    7,
		Compress:  true,
	}
}

// Logger is the process logger: zerolog over a rotating file and, when
// asked, stderr. Answers go to stdout, so logs never do.
type Logger struct {
	logger   zerolog.Logger
	file     io.Closer
	redactor *Redactor
}

// New builds a logger from cfg and installs it as zerolog's global logger.
// With neither a file nor console output everything is discarded.
func New(cfg Config) (*Logger, error) {
	l := &Logger{}

	out, err := l.outputs(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Redaction {
		l.redactor = NewRedactor()
		out = l.redactor.Wrap(out)
	}

	l.logger = zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	log.Logger = l.logger
	return l, nil
}

func (l *Logger) outputs(cfg Config) (io.Writer, error) {
	var writers []io.Writer

	if cfg.File != "" {
		file, err := NewRotatingWriter(cfg.File, cfg.MaxSize, cfg.MaxAge, cfg.Compress)
		if err != nil {
			return nil, err
		}
		l.file = file
		writers = append(writers, file)
	}

	if cfg.Console {
		var console io.Writer = os.Stderr
		if cfg.Pretty {
			console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		}
		writers = append(writers, console)
	}

	switch len(writers) {
	case 0:
		return io.Discard, nil
	case 1:
		return writers[0], nil
	default:
		return zerolog.MultiLevelWriter(writers...), nil
	}
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Debug starts a debug message
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info starts an info message
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn starts a warning message
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error starts an error message
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// With creates a child logger context
func (l *Logger) With() zerolog.Context {
	return l.logger.With()
}

// GetZerolog returns the underlying zerolog.Logger
func (l *Logger) GetZerolog() zerolog.Logger {
	return l.logger
}
