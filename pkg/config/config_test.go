package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: development
server:
  port: 8000
  read_timeout: 10s
backend:
  type: kafka
kafka:
  brokers: ["localhost:9092"]
  topic: ticks
binance:
  websocket_url: wss://stream.binance.com:9443/ws
  rest_url: https://api.binance.com
  symbols: ["BTCUSDT", "ETHUSDT"]
  reconnect_delay: 5s
engine:
  sensitivity: 2.0
  num_attractors: 5
alerts:
  enabled: true
  interval: 1m
  cooldown: 5m
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != 8000 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if len(c.Binance.Symbols) != 2 || c.Binance.Symbols[0] != "BTCUSDT" {
		t.Fatalf("symbols = %v", c.Binance.Symbols)
	}
	if c.Binance.ReconnectDelay != 5*time.Second {
		t.Fatalf("reconnect_delay = %v", c.Binance.ReconnectDelay)
	}
	if c.Engine.Sensitivity != 2.0 {
		t.Fatalf("sensitivity = %v", c.Engine.Sensitivity)
	}
	if !c.Alerts.Enabled || c.Alerts.Cooldown != 5*time.Minute {
		t.Fatalf("alerts = %+v", c.Alerts)
	}
}

func TestValidateRejections(t *testing.T) {
	base := func() *Config {
		c := &Config{Environment: "development"}
		c.Backend.Type = "kafka"
		c.Binance.Symbols = []string{"BTCUSDT"}
		return c
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	c := base()
	c.Environment = ""
	if err := c.Validate(); err == nil {
		t.Fatal("missing environment accepted")
	}

	c = base()
	c.Backend.Type = "postgres"
	if err := c.Validate(); err == nil {
		t.Fatal("unknown backend accepted")
	}

	c = base()
	c.Binance.Symbols = nil
	if err := c.Validate(); err == nil {
		t.Fatal("empty symbols accepted")
	}

	c = base()
	c.Engine.Sensitivity = -1
	if err := c.Validate(); err == nil {
		t.Fatal("negative sensitivity accepted")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "SOLUSDT,ADAUSDT")
	t.Setenv("ALERT_WEBHOOK_URL", "https://hooks.example.com/manifold")

	c, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Binance.Symbols) != 2 || c.Binance.Symbols[0] != "SOLUSDT" {
		t.Fatalf("symbols = %v", c.Binance.Symbols)
	}
	if c.Alerts.WebhookURL != "https://hooks.example.com/manifold" {
		t.Fatalf("webhook = %q", c.Alerts.WebhookURL)
	}
}
