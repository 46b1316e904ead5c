package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// SlogManager manages slog-based logging to a console and an optional file.
type SlogManager struct {
	logger *slog.Logger
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. Records go to console in the given
// format ("json" or "text") and, in text, to file. Either writer may be nil.
// The file logs at fileLevel, or at level when fileLevel is empty.
func (m *SlogManager) Setup(console, file io.Writer, level, fileLevel, format string) {
	lvl := parseLevel(level)
	fileLvl := lvl
	if fileLevel != "" {
		fileLvl = parseLevel(fileLevel)
	}

	// Common handler options with RFC3339 time formatting; sinks gate levels
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var sinks []Sink

	if console != nil {
		var h slog.Handler = slog.NewTextHandler(console, handlerOpts)
		if strings.EqualFold(format, "json") {
			h = slog.NewJSONHandler(console, handlerOpts)
		}
		sinks = append(sinks, Sink{Handler: h, Level: lvl})
	}

	if file != nil {
		sinks = append(sinks, Sink{Handler: slog.NewTextHandler(file, handlerOpts), Level: fileLvl})
	}

	m.logger = slog.New(NewMultiHandler(sinks...))
	m.logger.Info("Logging initialized", "level", lvl.String(), "fileLevel", fileLvl.String())
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}
