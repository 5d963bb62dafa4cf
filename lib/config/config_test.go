// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so tests see defaults
// regardless of the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"GLUETUN_HOST", "GLUETUN_PORT", "GLUETUN_AUTH_TYPE",
		"GLUETUN_USERNAME", "GLUETUN_PASSWORD", "GLUETUN_APIKEY",
		"SLSKD_HOST", "SLSKD_PORT", "SLSKD_APIKEY", "SLSKD_HTTPS",
		"SLSKD_VERIFY_SSL", "CHECK_INTERVAL", "LOG_LEVEL", "HEALTH_FILE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	settings, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if settings.GluetunHost != "gluetun" || settings.GluetunPort != 8000 {
		t.Errorf("gluetun defaults = %s:%d, want gluetun:8000", settings.GluetunHost, settings.GluetunPort)
	}
	if settings.GluetunAuthType != "apikey" {
		t.Errorf("GluetunAuthType = %q, want apikey", settings.GluetunAuthType)
	}
	if settings.SlskdHost != "slskd" || settings.SlskdPort != 5030 {
		t.Errorf("slskd defaults = %s:%d, want slskd:5030", settings.SlskdHost, settings.SlskdPort)
	}
	if settings.SlskdHTTPS || settings.SlskdVerifySSL {
		t.Error("TLS flags should default to false")
	}
	if settings.CheckInterval != 30*time.Second {
		t.Errorf("CheckInterval = %v, want 30s", settings.CheckInterval)
	}
	if settings.HealthFile != "/app/health/status.json" {
		t.Errorf("HealthFile = %q", settings.HealthFile)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GLUETUN_HOST", "vpn.local")
	t.Setenv("GLUETUN_PORT", "9000")
	t.Setenv("GLUETUN_AUTH_TYPE", "basic")
	t.Setenv("GLUETUN_USERNAME", "user")
	t.Setenv("GLUETUN_PASSWORD", "secret")
	t.Setenv("SLSKD_HTTPS", "true")
	t.Setenv("CHECK_INTERVAL", "5")

	settings, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if settings.GluetunHost != "vpn.local" || settings.GluetunPort != 9000 {
		t.Errorf("gluetun = %s:%d", settings.GluetunHost, settings.GluetunPort)
	}
	if settings.GluetunAuthType != "basic" || settings.GluetunUsername != "user" {
		t.Errorf("auth = %s/%s", settings.GluetunAuthType, settings.GluetunUsername)
	}
	if !settings.SlskdHTTPS {
		t.Error("SlskdHTTPS should be true")
	}
	if settings.CheckInterval != 5*time.Second {
		t.Errorf("CheckInterval = %v, want 5s", settings.CheckInterval)
	}
}

func TestLoad_MalformedValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"GLUETUN_PORT", "not-a-number"},
		{"SLSKD_PORT", "5030.5"},
		{"SLSKD_HTTPS", "maybe"},
		{"CHECK_INTERVAL", "30s"},
	}
	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(test.key, test.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%q", test.key, test.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	settings := Default()
	if err := settings.Validate(); err != nil {
		t.Fatalf("default settings should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"bad auth type", func(s *Settings) { s.GluetunAuthType = "oauth" }, "GLUETUN_AUTH_TYPE"},
		{"bad gluetun port", func(s *Settings) { s.GluetunPort = 0 }, "GLUETUN_PORT"},
		{"bad slskd port", func(s *Settings) { s.SlskdPort = 70000 }, "SLSKD_PORT"},
		{"bad interval", func(s *Settings) { s.CheckInterval = 0 }, "CHECK_INTERVAL"},
		{"empty health file", func(s *Settings) { s.HealthFile = "" }, "HEALTH_FILE"},
		{"bad log level", func(s *Settings) { s.LogLevel = "verbose" }, "LOG_LEVEL"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			settings := Default()
			test.mutate(settings)
			err := settings.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error %q does not mention %s", err, test.want)
			}
		})
	}
}

func TestBaseURLs(t *testing.T) {
	settings := Default()
	if got := settings.GluetunBaseURL(); got != "http://gluetun:8000" {
		t.Errorf("GluetunBaseURL = %q", got)
	}
	if got := settings.SlskdBaseURL(); got != "http://slskd:5030" {
		t.Errorf("SlskdBaseURL = %q", got)
	}
	settings.SlskdHTTPS = true
	if got := settings.SlskdBaseURL(); got != "https://slskd:5030" {
		t.Errorf("SlskdBaseURL with HTTPS = %q", got)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}
	for _, test := range tests {
		settings := Default()
		settings.LogLevel = test.level
		if got := settings.SlogLevel(); got != test.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", test.level, got, test.want)
		}
	}
}
