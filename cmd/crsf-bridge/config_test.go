package main

import (
	"testing"
	"time"
)

func validConfig() *appConfig {
	return &appConfig{
		serialDev:    "/dev/null",
		baud:         420000,
		listenAddr:   ":20000",
		deviceReadTO: 10 * time.Millisecond,
		logFormat:    "text",
		logLevel:     "info",
		hubBuffer:    8,
		hubPolicy:    "drop",
		backend:      "serial",
		netAddr:      "",
		netDialTO:    time.Second,
		maxClients:   0,
		clientReadTO: time.Second,
	}
}

func TestConfigValidate_OK(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Fatalf("expected ok got %v", err)
	}
}

func TestConfigValidate_NetBackend(t *testing.T) {
	c := validConfig()
	c.backend = "net"
	if err := c.validate(); err == nil {
		t.Fatalf("expected error for net backend without net-addr")
	}
	c.netAddr = "192.168.1.10:5761"
	if err := c.validate(); err != nil {
		t.Fatalf("expected ok with net-addr, got %v", err)
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*appConfig)
	}{
		{"badFormat", func(c *appConfig) { c.logFormat = "xx" }},
		{"badLevel", func(c *appConfig) { c.logLevel = "nope" }},
		{"badBackend", func(c *appConfig) { c.backend = "x" }},
		{"badPolicy", func(c *appConfig) { c.hubPolicy = "x" }},
		{"badHubBuf", func(c *appConfig) { c.hubBuffer = 0 }},
		{"badBaud", func(c *appConfig) { c.baud = 0 }},
		{"badDeviceTO", func(c *appConfig) { c.deviceReadTO = 0 }},
		{"badNetDialTO", func(c *appConfig) { c.netDialTO = 0 }},
		{"badClientReadTO", func(c *appConfig) { c.clientReadTO = 0 }},
		{"badMaxClients", func(c *appConfig) { c.maxClients = -1 }},
	}
	for _, tc := range tests {
		base := validConfig()
		tc.mod(base)
		if err := base.validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
