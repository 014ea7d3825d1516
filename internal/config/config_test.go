package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trading.Symbol != "APT" {
		t.Errorf("symbol = %q, want APT", cfg.Trading.Symbol)
	}
	if cfg.Trading.MinCash != 1000 || cfg.Trading.MaxPosition != 1000 {
		t.Errorf("risk gate defaults = %d/%d", cfg.Trading.MinCash, cfg.Trading.MaxPosition)
	}
	if cfg.Trading.QuoteQty != 3 || cfg.Trading.SwapQty != 1 {
		t.Errorf("quote defaults = %d/%d", cfg.Trading.QuoteQty, cfg.Trading.SwapQty)
	}
	if cfg.Trading.MomentumThreshold != 2 || cfg.Trading.MomentumQty != 5 {
		t.Errorf("momentum defaults = %d/%d", cfg.Trading.MomentumThreshold, cfg.Trading.MomentumQty)
	}
	if cfg.Trading.CoverMargin != 10 || cfg.Trading.CoverPollInterval != 3*time.Second {
		t.Errorf("cover defaults = %d/%s", cfg.Trading.CoverMargin, cfg.Trading.CoverPollInterval)
	}
	if cfg.Trading.RebalanceThreshold != 50 || cfg.Trading.RebalanceQty != 25 {
		t.Errorf("rebalance defaults = %d/%d", cfg.Trading.RebalanceThreshold, cfg.Trading.RebalanceQty)
	}
	if cfg.Trading.PacingDelay != 500*time.Millisecond {
		t.Errorf("pacing delay = %s, want 500ms", cfg.Trading.PacingDelay)
	}
	if cfg.Supervisor.ReconnectDelay != 5*time.Second || cfg.Supervisor.MaxAttempts != 0 {
		t.Errorf("supervisor defaults = %s/%d", cfg.Supervisor.ReconnectDelay, cfg.Supervisor.MaxAttempts)
	}
	if cfg.Monitor.Interval != 3*time.Second {
		t.Errorf("monitor interval = %s, want 3s", cfg.Monitor.Interval)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Exchange.AuthType != "password" {
		t.Errorf("auth type = %q, want password", cfg.Exchange.AuthType)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
trading:
  symbol: DLR
  rebalance_qty: 40
supervisor:
  reconnect_delay: 1s
  max_attempts: 7
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trading.Symbol != "DLR" {
		t.Errorf("symbol = %q, want DLR", cfg.Trading.Symbol)
	}
	if cfg.Trading.RebalanceQty != 40 {
		t.Errorf("rebalance qty = %d, want 40", cfg.Trading.RebalanceQty)
	}
	if cfg.Supervisor.ReconnectDelay != time.Second || cfg.Supervisor.MaxAttempts != 7 {
		t.Errorf("supervisor = %s/%d", cfg.Supervisor.ReconnectDelay, cfg.Supervisor.MaxAttempts)
	}
	// Untouched keys keep their defaults.
	if cfg.Trading.QuoteQty != 3 {
		t.Errorf("quote qty = %d, want default 3", cfg.Trading.QuoteQty)
	}
}

func TestLoad_EnvCredentialOverride(t *testing.T) {
	t.Setenv("XCHANGE_USERNAME", "texastech")
	t.Setenv("XCHANGE_PASSWORD", "secret")
	t.Setenv("XCHANGE_HOST", "ws://comp.example:9000/exchange")

	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Exchange.Username != "texastech" || cfg.Exchange.Password != "secret" {
		t.Errorf("credentials = %q/%q", cfg.Exchange.Username, cfg.Exchange.Password)
	}
	if cfg.Exchange.Host != "ws://comp.example:9000/exchange" {
		t.Errorf("host = %q", cfg.Exchange.Host)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty symbol", "trading:\n  symbol: \"\"\n"},
		{"zero poll interval", "trading:\n  cover_poll_interval: 0s\n"},
		{"zero reconnect delay", "supervisor:\n  reconnect_delay: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
