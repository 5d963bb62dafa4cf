// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the immutable process configuration, loaded once at
// startup from environment variables. All components receive the
// fields they need at construction and never mutate them.
type Settings struct {
	// GluetunHost is the gluetun control server hostname.
	GluetunHost string

	// GluetunPort is the gluetun control server port.
	GluetunPort int

	// GluetunAuthType selects the control server authentication
	// mode: "basic" or "apikey".
	GluetunAuthType string

	// GluetunUsername and GluetunPassword are the HTTP Basic
	// credentials for auth type "basic".
	GluetunUsername string
	GluetunPassword string

	// GluetunAPIKey is the X-API-Key value for auth type "apikey".
	GluetunAPIKey string

	// SlskdHost is the slskd server hostname.
	SlskdHost string

	// SlskdPort is the slskd server port.
	SlskdPort int

	// SlskdAPIKey is the slskd API key. The key must carry the
	// Administrator role for remote configuration access.
	SlskdAPIKey string

	// SlskdHTTPS selects HTTPS for slskd connections.
	SlskdHTTPS bool

	// SlskdVerifySSL enables TLS certificate verification for slskd
	// connections. Disabled by default because slskd deployments
	// commonly use self-signed certificates.
	SlskdVerifySSL bool

	// CheckInterval is the delay between port reconciliation cycles.
	CheckInterval time.Duration

	// LogLevel is the textual log level (debug, info, warn, error).
	LogLevel string

	// HealthFile is the path the health status JSON is written to.
	HealthFile string
}

// Default returns the default settings. These match the documented
// container defaults; Load overlays environment variables on top.
func Default() *Settings {
	return &Settings{
		GluetunHost:     "gluetun",
		GluetunPort:     8000,
		GluetunAuthType: "apikey",
		SlskdHost:       "slskd",
		SlskdPort:       5030,
		SlskdHTTPS:      false,
		SlskdVerifySSL:  false,
		CheckInterval:   30 * time.Second,
		LogLevel:        "INFO",
		HealthFile:      "/app/health/status.json",
	}
}

// Load builds Settings from the process environment. Unset and empty
// variables keep their defaults; malformed numeric or boolean values
// are load errors so a broken deployment fails at startup rather than
// on the first reconciliation cycle.
func Load() (*Settings, error) {
	settings := Default()
	var errs []error

	envString(&settings.GluetunHost, "GLUETUN_HOST")
	envInt(&settings.GluetunPort, "GLUETUN_PORT", &errs)
	envString(&settings.GluetunAuthType, "GLUETUN_AUTH_TYPE")
	envString(&settings.GluetunUsername, "GLUETUN_USERNAME")
	envString(&settings.GluetunPassword, "GLUETUN_PASSWORD")
	envString(&settings.GluetunAPIKey, "GLUETUN_APIKEY")
	envString(&settings.SlskdHost, "SLSKD_HOST")
	envInt(&settings.SlskdPort, "SLSKD_PORT", &errs)
	envString(&settings.SlskdAPIKey, "SLSKD_APIKEY")
	envBool(&settings.SlskdHTTPS, "SLSKD_HTTPS", &errs)
	envBool(&settings.SlskdVerifySSL, "SLSKD_VERIFY_SSL", &errs)
	envSeconds(&settings.CheckInterval, "CHECK_INTERVAL", &errs)
	envString(&settings.LogLevel, "LOG_LEVEL")
	envString(&settings.HealthFile, "HEALTH_FILE")

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return settings, nil
}

// Validate checks the settings for errors.
func (s *Settings) Validate() error {
	var errs []error

	if s.GluetunAuthType != "basic" && s.GluetunAuthType != "apikey" {
		errs = append(errs, fmt.Errorf("GLUETUN_AUTH_TYPE must be basic or apikey, got %q", s.GluetunAuthType))
	}
	if s.GluetunPort <= 0 || s.GluetunPort > 65535 {
		errs = append(errs, fmt.Errorf("GLUETUN_PORT %d out of range", s.GluetunPort))
	}
	if s.SlskdPort <= 0 || s.SlskdPort > 65535 {
		errs = append(errs, fmt.Errorf("SLSKD_PORT %d out of range", s.SlskdPort))
	}
	if s.CheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("CHECK_INTERVAL must be positive, got %v", s.CheckInterval))
	}
	if s.HealthFile == "" {
		errs = append(errs, fmt.Errorf("HEALTH_FILE is required"))
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// GluetunBaseURL returns the base URL for the gluetun control server.
// The control server is plain HTTP only.
func (s *Settings) GluetunBaseURL() string {
	return fmt.Sprintf("http://%s:%d", s.GluetunHost, s.GluetunPort)
}

// SlskdBaseURL returns the base URL for the slskd API.
func (s *Settings) SlskdBaseURL() string {
	scheme := "http"
	if s.SlskdHTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.SlskdHost, s.SlskdPort)
}

// SlogLevel maps LogLevel to a slog.Level. Call Validate first;
// unknown levels fall back to info here.
func (s *Settings) SlogLevel() slog.Level {
	level, err := parseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn, or error, got %q", level)
}

func envString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func envInt(target *int, key string, errs *[]error) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, value))
		return
	}
	*target = parsed
}

func envBool(target *bool, key string, errs *[]error) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a boolean", key, value))
		return
	}
	*target = parsed
}

func envSeconds(target *time.Duration, key string, errs *[]error) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a number of seconds", key, value))
		return
	}
	*target = time.Duration(parsed) * time.Second
}
