package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"tracemetrics/internal/analysis"
	"tracemetrics/internal/capture"
	"tracemetrics/internal/config"
	"tracemetrics/internal/exporter"
	"tracemetrics/internal/reporting"
	"tracemetrics/internal/tui"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "Example: ./tracemetrics -in trace.pcapng -window 1s -out plots")
		os.Exit(2)
	}

	logger, closer, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Run failed")
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	logger.WithFields(cfg.Fields()).Info("Starting trace analysis")

	reader, err := capture.New(cfg.Decoder, cfg.Input, cfg.Filter, logger)
	if err != nil {
		return err
	}
	packets, err := reader.ReadPackets(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.Input, err)
	}
	logger.WithField("packets", len(packets)).Info("Trace loaded")

	report := analysis.NewEngine(cfg.EngineConfig(), logger).Run(packets)

	if len(cfg.Formats) > 0 {
		if _, err := reporting.Generate(report, cfg.OutDir, cfg.Formats, logger); err != nil {
			return err
		}
	}

	reg := exporter.NewRegistry(report)
	if cfg.PromFile != "" {
		if err := exporter.WriteTextfile(cfg.PromFile, reg); err != nil {
			return err
		}
		logger.WithField("file", cfg.PromFile).Info("Saved Prometheus metrics")
	}

	if cfg.Listen == "" {
		if cfg.TUI {
			return runTUI(report, cfg.Input)
		}
		return nil
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- exporter.Serve(serveCtx, cfg.Listen, exporter.NewRouter(report, reg, logger), logger)
	}()

	if cfg.TUI {
		if err := runTUI(report, cfg.Input); err != nil {
			return err
		}
		cancel()
	}
	return <-errCh
}

func runTUI(report *analysis.Report, source string) error {
	p := tea.NewProgram(tui.NewReportModel(report, source), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
