// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

// Package watcher runs the port reconciliation loop: on a fixed
// interval it reads the forwarded port from gluetun, compares it to
// the last port slskd was confirmed to use, syncs slskd when they
// differ, and reports the outcome to the health file.
//
// The loop is the sole writer of its sync and health state, so the
// package does no locking. Failures never escape a cycle: every error
// reduces to a log line plus an unhealthy health report, and the next
// cycle retries from scratch.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dankreek/slskSticky/lib/clock"
)

const (
	// defaultInterval is the delay between reconciliation cycles
	// when none is configured.
	defaultInterval = 30 * time.Second

	// recoveryDelay replaces the normal interval after a cycle
	// panics, so a persistent internal fault retries quickly without
	// spinning.
	recoveryDelay = 5 * time.Second
)

// PortSource reads the currently forwarded port from the VPN gateway.
// Implemented by gluetun.Client.
type PortSource interface {
	GetForwardedPort(ctx context.Context) (int, error)
}

// PortSyncer points the file-sharing daemon's listen port at a new
// value. Implemented by slskd.Client. changed reports whether the
// remote configuration was actually rewritten, as opposed to already
// carrying the desired port.
type PortSyncer interface {
	UpdateListenPort(ctx context.Context, port int) (changed bool, err error)
}

// SyncState tracks what the daemon is confirmed to be configured with.
// CurrentPort is 0 until a sync succeeds or an already-correct port is
// observed; it is never set speculatively before a successful sync.
type SyncState struct {
	CurrentPort int
	FirstRun    bool
}

// HealthStatus is the outcome of the most recent reconciliation cycle.
// Healthy is false iff the cycle encountered a failure; LastError is
// cleared only by a fully successful cycle.
type HealthStatus struct {
	Healthy        bool
	LastCheck      time.Time
	LastPortChange time.Time
	LastError      string

	// ObservedPort is the most recent port the gateway reported,
	// whether or not slskd has been synced to it yet.
	ObservedPort int
}

// Config holds configuration for creating a Watcher.
type Config struct {
	// Source reads the forwarded port. Required.
	Source PortSource

	// Syncer updates the slskd listen port. Required.
	Syncer PortSyncer

	// Interval is the delay between cycles. Defaults to 30 seconds.
	Interval time.Duration

	// HealthFile is the path the health report is written to.
	// Required.
	HealthFile string

	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Watcher owns the reconciliation loop and its state.
type Watcher struct {
	source     PortSource
	syncer     PortSyncer
	interval   time.Duration
	healthPath string
	clock      clock.Clock
	logger     *slog.Logger

	startTime time.Time
	state     SyncState
	health    HealthStatus
}

// New creates a Watcher. The process start time, for uptime reporting,
// is taken from the clock at construction.
func New(config Config) *Watcher {
	interval := config.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := clk.Now()
	return &Watcher{
		source:     config.Source,
		syncer:     config.Syncer,
		interval:   interval,
		healthPath: config.HealthFile,
		clock:      clk,
		logger:     logger,
		startTime:  now,
		state:      SyncState{FirstRun: true},
		health:     HealthStatus{Healthy: true, LastCheck: now},
	}
}

// Run executes reconciliation cycles until the context is cancelled.
// Cancellation is observed at the top of each cycle and during the
// inter-cycle sleep, so shutdown latency is bounded by the running
// cycle, not the poll interval.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("starting port watch", "interval", w.interval)
	for {
		if ctx.Err() != nil {
			return
		}
		delay := w.runCycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-w.clock.After(delay):
		}
	}
}

// runCycle performs one check-compare-sync-report cycle and returns
// the delay before the next cycle. A panic anywhere in the cycle is
// recovered here: the loop itself is never fatal, and a panicked cycle
// reports unhealthy and retries after recoveryDelay.
func (w *Watcher) runCycle(ctx context.Context) (delay time.Duration) {
	delay = w.interval
	defer func() {
		if recovered := recover(); recovered != nil {
			w.health.Healthy = false
			w.health.LastError = fmt.Sprint(recovered)
			w.logger.Error("watch cycle failed unexpectedly", "error", recovered)
			w.writeHealthFile()
			delay = recoveryDelay
		}
	}()

	w.health.LastCheck = w.clock.Now()

	port, err := w.source.GetForwardedPort(ctx)
	if err != nil {
		// The tracked port stays untouched: nothing was learned
		// about what slskd should be using.
		w.health.Healthy = false
		w.health.LastError = fmt.Sprintf("Failed to get port from Gluetun: %v", err)
		w.logger.Error("failed to get forwarded port", "error", err)
		w.writeHealthFile()
		return delay
	}

	w.health.Healthy = true
	w.health.ObservedPort = port

	if port == w.state.CurrentPort {
		if w.state.FirstRun {
			w.logger.Info("initial port check: port already set correctly", "port", port)
		} else {
			w.logger.Debug("port already set correctly", "port", port)
		}
		w.health.LastError = ""
	} else {
		w.logger.Info("port change detected", "from", w.state.CurrentPort, "to", port)
		changed, err := w.syncer.UpdateListenPort(ctx, port)
		if err != nil {
			w.health.Healthy = false
			w.health.LastError = fmt.Sprintf("Failed to update port in slskd: %v", err)
			w.logger.Error("failed to update slskd port", "port", port, "error", err)
		} else {
			w.state.CurrentPort = port
			w.health.LastError = ""
			if changed {
				w.health.LastPortChange = w.clock.Now()
				w.logger.Info("slskd listen port synced", "port", port)
			} else {
				w.logger.Debug("slskd already configured", "port", port)
			}
		}
	}

	w.writeHealthFile()
	w.state.FirstRun = false
	return delay
}
