// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides environment-variable configuration for the
// slsksticky daemon.
//
// The daemon runs as a container sidecar, so all configuration comes
// from the environment: GLUETUN_* for the gluetun control server,
// SLSKD_* for the slskd API, plus CHECK_INTERVAL, LOG_LEVEL, and
// HEALTH_FILE. Every variable has a default (see [Default]); unset and
// empty variables keep their defaults, and malformed values fail at
// [Load] time.
//
// Settings are immutable after loading. There is no config file, no
// discovery, and no reload — this ensures the running daemon's
// behavior is fully determined by its environment at startup.
//
// Key exports:
//
//   - [Settings] -- the immutable configuration struct
//   - [Load] -- environment overlay on top of [Default]
//   - [Settings.Validate] -- fail-fast startup validation
//
// This package depends on no other slskSticky packages.
package config
