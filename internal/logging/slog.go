package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const serviceName = "flightplanner"

// Swapped in tests to capture console output.
var (
	osStdout = os.Stdout
	osPipe   = os.Pipe
)

// Options selects the outputs of a SlogManager.
type Options struct {
	Level string
	// File receives text logs. When nil, logs go to stdout instead.
	File io.Writer
	// GELF receives JSON logs for Graylog, if set.
	GELF io.Writer
	// Provider enables the OTel bridge when non-nil.
	Provider *sdklog.LoggerProvider
	// Context adds dynamic attributes, e.g. the plan being edited.
	Context ContextProvider
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// ParseLevel converts a string log level to slog.Level. Unknown levels map
// to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the handler chain and replaces any previous logger.
func (m *SlogManager) Setup(opts Options) {
	lvl := ParseLevel(opts.Level)
	m.logProvider = opts.Provider

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler

	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	if opts.GELF != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.GELF, handlerOpts))
	}

	if opts.Provider != nil {
		handlers = append(handlers, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(opts.Provider)))
	}

	var handler slog.Handler = newFanout(handlers...)
	if opts.Context != nil {
		handler = planContext{next: handler, provider: opts.Context}
	}

	m.logger = slog.New(handler)
	m.logger.Info("Logging initialized", "level", lvl.String())
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog writes a message attributed to a component at the given level.
func (m *SlogManager) WriteLog(component, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), ParseLevel(level), data, "component", component)
}
