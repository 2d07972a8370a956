// Package logger wraps logrus behind a small interface so the standardizer,
// the reader and the CLI share one structured logger with run scoped fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the logging contract used across the module
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	WithComponent(component string) Logger
}

// Fields is a set of structured key-value pairs
type Fields map[string]interface{}

// Level is a log level name
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

var levels = map[Level]logrus.Level{
	DebugLevel: logrus.DebugLevel,
	InfoLevel:  logrus.InfoLevel,
	WarnLevel:  logrus.WarnLevel,
	ErrorLevel: logrus.ErrorLevel,
}

// Format selects the encoding of log entries
type Format string

const (
	JSONFormat Format = "json"
	TextFormat Format = "text"
)

// Output selects where entries are written
type Output string

const (
	StderrOutput  Output = "stderr"
	StdoutOutput  Output = "stdout"
	FileOutput    Output = "file"
	DiscardOutput Output = "discard"
)

// Config holds the logger settings. File is only read for FileOutput.
type Config struct {
	Level            Level  `json:"level" mapstructure:"level"`
	Format           Format `json:"format" mapstructure:"format"`
	Output           Output `json:"output" mapstructure:"output"`
	File             string `json:"file,omitempty" mapstructure:"file"`
	DisableTimestamp bool   `json:"disable_timestamp,omitempty" mapstructure:"disable_timestamp"`
	CallerInfo       bool   `json:"caller_info,omitempty" mapstructure:"caller_info"`
}

// DefaultConfig logs info and above as text to stderr, keeping stdout free
// for reports.
func DefaultConfig() *Config {
	return &Config{
		Level:  InfoLevel,
		Format: TextFormat,
		Output: StderrOutput,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if _, ok := levels[c.Level]; !ok {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}

	switch c.Format {
	case JSONFormat, TextFormat:
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	switch c.Output {
	case StderrOutput, StdoutOutput, DiscardOutput:
	case FileOutput:
		if strings.TrimSpace(c.File) == "" {
			return fmt.Errorf("log file path is required for file output")
		}
	default:
		return fmt.Errorf("invalid log output: %s", c.Output)
	}
	return nil
}

func (c *Config) writer() (io.Writer, error) {
	switch c.Output {
	case StdoutOutput:
		return os.Stdout, nil
	case DiscardOutput:
		return io.Discard, nil
	case FileOutput:
		if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		return os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	default:
		return os.Stderr, nil
	}
}

func (c *Config) formatter() logrus.Formatter {
	caller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}
	if c.Format == JSONFormat {
		return &logrus.JSONFormatter{
			DisableTimestamp: c.DisableTimestamp,
			TimestampFormat:  time.RFC3339Nano,
			CallerPrettyfier: caller,
		}
	}
	return &logrus.TextFormatter{
		DisableTimestamp: c.DisableTimestamp,
		FullTimestamp:    !c.DisableTimestamp,
		TimestampFormat:  "15:04:05.000",
		CallerPrettyfier: caller,
	}
}

// NewLogger builds a logger from config; a nil config means DefaultConfig
func NewLogger(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}

	out, err := config.writer()
	if err != nil {
		return nil, fmt.Errorf("failed to set log output: %w", err)
	}

	base := logrus.New()
	base.SetLevel(levels[config.Level])
	base.SetOutput(out)
	base.SetFormatter(config.formatter())
	base.SetReportCaller(config.CallerInfo)

	return entryLogger{logrus.NewEntry(base)}, nil
}

// NewNopLogger returns a logger that drops every entry
func NewNopLogger() Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	base.SetLevel(logrus.PanicLevel)
	return entryLogger{logrus.NewEntry(base)}
}

// entryLogger carries accumulated fields through the With* calls
type entryLogger struct {
	*logrus.Entry
}

func (l entryLogger) WithField(key string, value interface{}) Logger {
	return entryLogger{l.Entry.WithField(key, value)}
}

func (l entryLogger) WithFields(fields Fields) Logger {
	return entryLogger{l.Entry.WithFields(logrus.Fields(fields))}
}

func (l entryLogger) WithError(err error) Logger {
	return entryLogger{l.Entry.WithError(err)}
}

func (l entryLogger) WithComponent(component string) Logger {
	return l.WithField("component", component)
}

var global Logger = NewNopLogger()

func init() {
	if l, err := NewLogger(DefaultConfig()); err == nil {
		global = l
	}
}

// SetGlobalLogger replaces the process wide logger
func SetGlobalLogger(l Logger) {
	if l != nil {
		global = l
	}
}

// GetGlobalLogger returns the process wide logger
func GetGlobalLogger() Logger {
	return global
}
