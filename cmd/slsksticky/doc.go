// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

// Command slsksticky keeps slskd's Soulseek listen port synchronized
// with the port gluetun has forwarded through the VPN.
//
// The daemon polls the gluetun control server on a fixed interval,
// and whenever the forwarded port differs from what slskd is
// configured with, rewrites slskd's remote options and triggers a
// server reconnect. After every cycle it writes a JSON health report
// for external monitoring; the report is removed on shutdown.
//
// Configuration is entirely environment-driven (see lib/config).
// SIGINT and SIGTERM trigger graceful shutdown.
package main
