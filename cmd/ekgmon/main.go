package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ekgmon/ekgmon/internal/app"
	"github.com/ekgmon/ekgmon/internal/config"
	"github.com/ekgmon/ekgmon/internal/device"
	"github.com/ekgmon/ekgmon/internal/display"
	"github.com/ekgmon/ekgmon/internal/errors"
	"github.com/ekgmon/ekgmon/internal/logger"
	"github.com/ekgmon/ekgmon/internal/telemetry"
	"github.com/ekgmon/ekgmon/internal/window"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")

	if err := run(cfg); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
		os.Exit(1)
	}

	logger.Info().Msg("Exiting...")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	go handleSignals(cancel)

	source, err := openSource(cfg)
	if err != nil {
		return err
	}

	win, err := window.New(cfg.Capacity)
	if err != nil {
		source.Close()
		return err
	}

	renderer, err := openRenderer(cfg, cancel)
	if err != nil {
		source.Close()
		return err
	}
	defer renderer.Close()

	collector, err := openCollector(cfg)
	if err != nil {
		source.Close()
		return err
	}
	defer collector.Close()

	return app.New(source, win, renderer, collector, cfg.Port, cfg.RedrawInterval).Run(ctx)
}

func handleSignals(cancel context.CancelCauseFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	cancel(nil)
}

func openSource(cfg *config.Config) (device.SampleSource, error) {
	if cfg.Source == "sim" {
		logger.Info().Int("rate", cfg.SimRate).Msg("Using simulated sample source")
		return device.NewSimulator(cfg.SimRate), nil
	}

	return device.Open(device.Config{
		Port:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Format:      device.Format(cfg.Format),
		Channel:     cfg.Channel,
		SkipSamples: cfg.SkipSamples,
	})
}

func openRenderer(cfg *config.Config, cancel context.CancelCauseFunc) (display.Renderer, error) {
	if cfg.Display == "console" {
		return display.NewConsole(), nil
	}

	return display.NewTUI(func() {
		cancel(errors.New().New(display.ErrClosed))
	})
}

func openCollector(cfg *config.Config) (telemetry.Collector, error) {
	if !cfg.Telemetry {
		return telemetry.NewNoop(), nil
	}

	return telemetry.NewService(telemetry.Config{DBPath: cfg.Database})
}
