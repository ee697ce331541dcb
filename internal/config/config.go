package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tracemetrics/internal/analysis"
	"tracemetrics/internal/capture"
	"tracemetrics/internal/logging"
	"tracemetrics/internal/reporting"
)

const envPrefix = "TRACEMETRICS_"

// Config holds the command line settings of one run.
type Config struct {
	Input        string
	Decoder      string
	Filter       string // BPF, libpcap decoder only
	Window       time.Duration
	ProtocolMode string
	OutDir       string
	Formats      []string
	PromFile     string
	Listen       string
	TUI          bool
	LogLevel     string
	LogFile      string
	LogFileLevel string
}

// Load parses args. Flags left unset take their value from TRACEMETRICS_*
// environment variables, then from the defaults.
func Load(args []string, output io.Writer) (Config, error) {
	var (
		cfg     Config
		formats string
	)

	fs := flag.NewFlagSet("tracemetrics", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.StringVar(&cfg.Input, "in", getEnv("INPUT", ""), "Capture file to analyze (pcap or pcapng)")
	fs.StringVar(&cfg.Decoder, "decoder", getEnv("DECODER", capture.DecoderGopacket), "Trace decoder: gopacket, libpcap or tshark")
	fs.StringVar(&cfg.Filter, "filter", getEnv("FILTER", ""), "BPF filter applied while reading (libpcap decoder)")
	fs.DurationVar(&cfg.Window, "window", getEnvDuration("WINDOW", analysis.DefaultWindow), "Throughput window width")
	fs.StringVar(&cfg.ProtocolMode, "protocol-mode", getEnv("PROTOCOL_MODE", analysis.ClassifyPorts.String()), "Protocol labelling: ports or compat")
	fs.StringVar(&cfg.OutDir, "out", getEnv("OUT", "plots"), "Directory for report artifacts")
	fs.StringVar(&formats, "format", getEnv("FORMAT", "html,csv"), "Comma separated report formats: html, csv, json, png")
	fs.StringVar(&cfg.PromFile, "prom-file", getEnv("PROM_FILE", ""), "Write Prometheus textfile metrics to this path")
	fs.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ""), "Serve the report and /metrics on this address")
	fs.BoolVar(&cfg.TUI, "tui", getEnvBool("TUI", false), "Browse the report in a terminal viewer")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", getEnv("LOG_FILE", ""), "Also write logs to this file, rotated at 10 MB")
	fs.StringVar(&cfg.LogFileLevel, "log-file-level", getEnv("LOG_FILE_LEVEL", "debug"), "Log level for -log-file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Input == "" && fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}
	cfg.Decoder = strings.ToLower(strings.TrimSpace(cfg.Decoder))
	cfg.Formats = splitList(formats)

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("no input trace given (use -in)")
	}
	switch c.Decoder {
	case capture.DecoderGopacket, capture.DecoderLibpcap, capture.DecoderTshark:
	default:
		return fmt.Errorf("unknown decoder: %s", c.Decoder)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	if _, err := analysis.ParseClassifyMode(c.ProtocolMode); err != nil {
		return err
	}
	if len(c.Formats) == 0 && c.PromFile == "" && c.Listen == "" && !c.TUI {
		return errors.New("nothing to do: no report format, -prom-file, -listen or -tui")
	}
	return reporting.ValidateFormats(c.Formats)
}

// EngineConfig returns the analysis settings. Call after Validate.
func (c Config) EngineConfig() analysis.Config {
	mode, _ := analysis.ParseClassifyMode(c.ProtocolMode)
	return analysis.Config{Window: c.Window, ProtocolMode: mode}
}

// NewLogger builds the run's logger. The closer releases the log file.
func (c Config) NewLogger() (*logrus.Logger, io.Closer, error) {
	var opts []logging.Option
	if c.LogFile != "" {
		opts = append(opts, logging.WithFile(c.LogFile), logging.WithFileLevel(c.LogFileLevel))
	}
	return logging.New(c.LogLevel, opts...)
}

// Fields summarizes the configuration for the startup log line.
func (c Config) Fields() logrus.Fields {
	return logrus.Fields{
		"input":    c.Input,
		"decoder":  c.Decoder,
		"window":   c.Window,
		"mode":     c.ProtocolMode,
		"out":      c.OutDir,
		"formats":  strings.Join(c.Formats, ","),
		"listen":   emptyFallback(c.Listen, "(disabled)"),
		"promFile": emptyFallback(c.PromFile, "(disabled)"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func emptyFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
