package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harun/smolcc/internal/config"
	"github.com/harun/smolcc/internal/logger"
	"github.com/harun/smolcc/internal/observability"
	"github.com/harun/smolcc/internal/tracing"
	"github.com/harun/smolcc/pkg/agent"
	"github.com/harun/smolcc/pkg/coretools"
	"github.com/harun/smolcc/pkg/memory"
	"github.com/harun/smolcc/pkg/session"
	"github.com/harun/smolcc/pkg/toolexecutor"
	"github.com/rs/zerolog/log"
)

const serviceName = "smolcc"

// streams are the terminal the session talks to
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// newModelClient creates the model client for a session; tests replace it
var newModelClient = func(settings config.SessionConfig) (agent.ModelClient, error) {
	client, err := agent.NewModelClient(agent.ProviderConfig{
		Provider: settings.Provider,
		BaseURL:  settings.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return agent.NewRetryingClient(client, settings.MaxRetries), nil
}

// app is one wired-up session: config, logging, tools and the controller
type app struct {
	cfg      *config.Config
	settings config.SessionConfig
	streams  streams
	reader   *toolexecutor.LineReader

	logger     *logger.Logger
	memory     *memory.Store
	controller *agent.Controller
	metrics    *http.Server
	audit      bool
	tracing    bool
}

func newApp(ctx context.Context, opts *rootOptions, s streams) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	settings, err := cfg.SessionConfig(opts.cwd)
	if err != nil {
		return nil, err
	}

	lg, err := newLogger(cfg, opts.noLog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:      cfg,
		settings: settings,
		streams:  s,
		reader:   toolexecutor.NewLineReader(s.in),
		logger:   lg,
	}

	if err := a.init(ctx, opts.noLog); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	if opts.provider != "" {
		provider := strings.ToLower(opts.provider)
		if provider != cfg.Model.Provider && opts.model == "" {
			cfg.Model.Name = ""
		}
		cfg.Model.Provider = provider
	}
	if opts.model != "" {
		cfg.Model.Name = opts.model
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, noLog bool) (*logger.Logger, error) {
	lc := logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console || cfg.Logging.Level == "debug",
		Pretty:    true,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	}
	if noLog {
		lc.File = ""
		lc.Console = false
	}
	return logger.New(lc)
}

func (a *app) init(ctx context.Context, noLog bool) error {
	if !noLog && a.cfg.Observability.AuditFile != "" {
		if err := observability.InitAuditLogger(a.cfg.Observability.AuditFile); err != nil {
			log.Warn().Err(err).Str("path", a.cfg.Observability.AuditFile).Msg("Audit log disabled")
		} else {
			a.audit = true
		}
	}

	if a.cfg.Observability.Tracing {
		if err := tracing.InitOpenTelemetry(serviceName, version); err != nil {
			log.Warn().Err(err).Msg("Tracing disabled")
		} else {
			a.tracing = true
		}
	}

	if addr := a.cfg.Observability.MetricsAddr; addr != "" {
		a.startMetrics(addr)
	}

	mem, err := memory.Load(a.settings.MemoryPath)
	if err != nil {
		return err
	}
	a.memory = mem
	if err := mem.Watch(log.Logger); err != nil {
		log.Warn().Err(err).Msg("Memory note changes will not be reported")
	}

	sess, err := session.New(a.settings.WorkingDir, mem.Path(), mem.CurrentContent())
	if err != nil {
		return err
	}

	registry := toolexecutor.NewRegistry()
	if err := coretools.Register(registry, coretools.Options{
		WorkingDir: a.settings.WorkingDir,
		Enabled:    a.cfg.Tools.ToolEnabled,
	}); err != nil {
		return err
	}

	gate := toolexecutor.NewGate(
		toolexecutor.NewSharedCLIApprovalHandler(a.reader, a.streams.err),
		a.settings.WorkingDir,
		a.settings.ApprovalTimeout,
	)

	dispatcher := toolexecutor.NewDispatcher(toolexecutor.DispatcherConfig{
		Timeout:    a.settings.ToolTimeout,
		MaxTimeout: a.settings.MaxToolTimeout,
		MaxOutput:  a.settings.MaxOutput,
		SessionID:  sess.ID,
		WorkingDir: a.settings.WorkingDir,
	})

	client, err := newModelClient(a.settings)
	if err != nil {
		return err
	}

	prompt, err := agent.BuildSystemPrompt(ctx, a.settings.WorkingDir, a.settings.Model,
		mem.Path(), mem.CurrentContent(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to build system prompt: %w", err)
	}

	controller, err := agent.NewController(agent.ControllerConfig{
		Client:       client,
		Registry:     registry,
		Gate:         gate,
		Dispatcher:   dispatcher,
		Session:      sess,
		Settings:     a.settings,
		SystemPrompt: prompt,
		Logger:       log.Logger,
		Observer:     newConsoleObserver(a.streams.err),
	})
	if err != nil {
		return err
	}
	a.controller = controller

	log.Info().
		Str("session_id", sess.ID).
		Str("working_dir", a.settings.WorkingDir).
		Str("provider", client.Provider()).
		Str("model", a.settings.Model).
		Int("tools", registry.Count()).
		Msg("Session started")

	return nil
}

func (a *app) startMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())

	a.metrics = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}(a.metrics)

	log.Info().Str("addr", addr).Msg("Serving metrics")
}

// close releases everything newApp set up, in reverse order
func (a *app) close() {
	if a.controller != nil && !a.controller.Session().Terminated() {
		a.controller.Exit()
	}

	if a.memory != nil {
		if a.memory.Modified() {
			fmt.Fprintf(a.streams.err, "memory note updated: %s\n", a.memory.Path())
		}
		if err := a.memory.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop memory note watcher")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if a.metrics != nil {
		if err := a.metrics.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to stop metrics server")
		}
	}
	if a.tracing {
		if err := tracing.ShutdownOpenTelemetry(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}
	if a.audit {
		if err := observability.GetAuditLogger().Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close audit log")
		}
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}
