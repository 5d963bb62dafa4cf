// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// healthReport is the JSON document written to the health file after
// every cycle. External monitoring (container healthchecks) consumes
// it, so the schema is part of the daemon's interface.
type healthReport struct {
	Healthy        bool          `json:"healthy"`
	Services       serviceHealth `json:"services"`
	Uptime         string        `json:"uptime"`
	LastCheck      string        `json:"last_check"`
	LastPortChange *string       `json:"last_port_change"`
	LastError      *string       `json:"last_error"`
	Timestamp      string        `json:"timestamp"`
}

type serviceHealth struct {
	Gluetun gluetunHealth `json:"gluetun"`
	Slskd   slskdHealth   `json:"slskd"`
}

type gluetunHealth struct {
	Connected bool `json:"connected"`
	Port      *int `json:"port"`
}

type slskdHealth struct {
	Connected  bool `json:"connected"`
	PortSynced bool `json:"port_synced"`
}

// healthReportAt builds the report from the current health and sync
// state. The reported port is the tracked (confirmed-synced) port, not
// the last observation from the gateway.
func (w *Watcher) healthReportAt(now time.Time) healthReport {
	portSynced := w.state.CurrentPort != 0
	var trackedPort *int
	if portSynced {
		port := w.state.CurrentPort
		trackedPort = &port
	}

	report := healthReport{
		Healthy: w.health.Healthy,
		Services: serviceHealth{
			Gluetun: gluetunHealth{
				Connected: w.health.Healthy,
				Port:      trackedPort,
			},
			Slskd: slskdHealth{
				Connected:  w.health.Healthy && portSynced,
				PortSynced: portSynced,
			},
		},
		Uptime:    now.Sub(w.startTime).String(),
		LastCheck: w.health.LastCheck.Format(time.RFC3339),
		Timestamp: now.Format(time.RFC3339),
	}
	if !w.health.LastPortChange.IsZero() {
		changed := w.health.LastPortChange.Format(time.RFC3339)
		report.LastPortChange = &changed
	}
	if w.health.LastError != "" {
		lastError := w.health.LastError
		report.LastError = &lastError
	}
	return report
}

// writeHealthFile serializes the current health report to the
// configured path, creating parent directories as needed. Write
// failures are logged and swallowed: health reporting must never take
// down the reconciliation loop.
func (w *Watcher) writeHealthFile() {
	report := w.healthReportAt(w.clock.Now())
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		w.logger.Error("failed to serialize health report", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(w.healthPath), 0o755); err != nil {
		w.logger.Error("failed to create health file directory", "path", w.healthPath, "error", err)
		return
	}
	if err := os.WriteFile(w.healthPath, data, 0o644); err != nil {
		w.logger.Error("failed to write health file", "path", w.healthPath, "error", err)
		return
	}
	w.logger.Debug("wrote health file", "path", w.healthPath)
}

// RemoveHealthFile deletes the health file at shutdown so external
// monitoring does not read a stale report from a dead process. A
// missing file is not an error.
func (w *Watcher) RemoveHealthFile() error {
	err := os.Remove(w.healthPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
