// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	var payload struct {
		Port int `json:"port"`
	}
	if err := DecodeResponse(strings.NewReader(`{"port": 51000}`), &payload); err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if payload.Port != 51000 {
		t.Errorf("port = %d, want 51000", payload.Port)
	}
}

func TestDecodeResponse_InvalidJSON(t *testing.T) {
	var payload any
	if err := DecodeResponse(strings.NewReader("not json"), &payload); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestErrorBody(t *testing.T) {
	if got := ErrorBody(strings.NewReader("listen_port is invalid")); got != "listen_port is invalid" {
		t.Errorf("ErrorBody = %q", got)
	}
}

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader("body"))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(data) != "body" {
		t.Errorf("ReadResponse = %q", data)
	}
}
