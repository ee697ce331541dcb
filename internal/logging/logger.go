package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimestampFormat matches the minute-resolution timestamps of the tool's log files.
const TimestampFormat = "2006-01-02 15:04"

// Log file rotation defaults.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
)

type Option func(*options)

type options struct {
	writer     io.Writer
	file       string
	fileLevel  string
	maxSizeMB  int
	maxBackups int
}

// WithWriter replaces stderr as the console log destination.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithFile also writes log lines to the named file, rotated by size.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithFileLevel sets the file's level independently of the console. Default debug.
func WithFileLevel(level string) Option {
	return func(o *options) {
		o.fileLevel = level
	}
}

// WithRotation overrides the file size limit and the number of rotated files kept.
func WithRotation(maxSizeMB, maxBackups int) Option {
	return func(o *options) {
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
	}
}

// New builds a text logger. level applies to the console; unknown levels fall
// back to info. The returned closer releases the log file, if any.
func New(level string, opts ...Option) (*logrus.Logger, io.Closer, error) {
	cfg := options{
		fileLevel:  "debug",
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	console := cfg.writer
	if console == nil {
		console = os.Stderr
	}
	consoleLevel := parseLevel(level)

	logger := logrus.New()
	logger.SetLevel(consoleLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: TimestampFormat,
	})

	if cfg.file == "" {
		logger.SetOutput(console)
		return logger, nopCloser{}, nil
	}

	// Open once up front so a bad path fails here rather than on the first write.
	f, err := os.OpenFile(cfg.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.file, err)
	}
	f.Close()

	rotator := &lumberjack.Logger{
		Filename:   cfg.file,
		MaxSize:    cfg.maxSizeMB,
		MaxBackups: cfg.maxBackups,
	}
	fileLevel := parseLevel(cfg.fileLevel)

	// Each destination filters by its own level; the logger passes the more verbose one.
	logger.SetOutput(io.Discard)
	logger.SetLevel(max(consoleLevel, fileLevel))
	logger.AddHook(&writer.Hook{Writer: console, LogLevels: levelsUpTo(consoleLevel)})
	logger.AddHook(&writer.Hook{Writer: rotator, LogLevels: levelsUpTo(fileLevel)})

	return logger, rotator, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

func levelsUpTo(level logrus.Level) []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}
	return levels
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
