// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/dankreek/slskSticky/lib/clock"
	"github.com/dankreek/slskSticky/lib/config"
	"github.com/dankreek/slskSticky/lib/gluetun"
	"github.com/dankreek/slskSticky/lib/process"
	"github.com/dankreek/slskSticky/lib/slskd"
	"github.com/dankreek/slskSticky/lib/version"
	"github.com/dankreek/slskSticky/lib/watcher"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var showVersion bool
	var healthFile string
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.StringVar(&healthFile, "health-file", "", "override the HEALTH_FILE path")
	flag.Parse()

	if showVersion {
		version.Print("slsksticky")
		return nil
	}

	settings, err := config.Load()
	if err != nil {
		return err
	}
	if healthFile != "" {
		settings.HealthFile = healthFile
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: settings.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gluetunClient := gluetun.New(gluetun.Config{
		BaseURL:  settings.GluetunBaseURL(),
		AuthType: settings.GluetunAuthType,
		Username: settings.GluetunUsername,
		Password: settings.GluetunPassword,
		APIKey:   settings.GluetunAPIKey,
		Clock:    clock.Real(),
		Logger:   logger,
	})
	slskdClient := slskd.New(slskd.Config{
		BaseURL:     settings.SlskdBaseURL(),
		APIKey:      settings.SlskdAPIKey,
		InsecureTLS: settings.SlskdHTTPS && !settings.SlskdVerifySSL,
		Logger:      logger,
	})
	portWatcher := watcher.New(watcher.Config{
		Source:     gluetunClient,
		Syncer:     slskdClient,
		Interval:   settings.CheckInterval,
		HealthFile: settings.HealthFile,
		Clock:      clock.Real(),
		Logger:     logger,
	})

	logger.Info("starting slsksticky",
		"gluetun", settings.GluetunBaseURL(),
		"slskd", settings.SlskdBaseURL(),
		"interval", settings.CheckInterval,
		"health_file", settings.HealthFile,
	)

	// The watcher is the process's only task; Run returns once the
	// signal context is cancelled, and cleanup below runs exactly
	// once.
	portWatcher.Run(ctx)

	logger.Info("shutting down")
	slskdClient.Close()
	if err := portWatcher.RemoveHealthFile(); err != nil {
		logger.Error("failed to remove health file", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}
