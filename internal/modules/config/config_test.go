package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
telegram:
  token: "file-token"
  operator_chat_id: 7348443729
bybit:
  api_key: "k"
  api_secret: "s"
strategy:
  instruments: ["DOGEUSDT", "BTCUSDT"]
  trade_size: 12
  hold_duration: 30s
engine:
  monitor_interval: 2s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.OperatorChatID != 7348443729 {
		t.Fatalf("unexpected chat id %d", cfg.Telegram.OperatorChatID)
	}
	if cfg.Strategy.TradeSize != 12 || cfg.Strategy.StopLossPct != 1 {
		t.Fatalf("unexpected strategy %+v", cfg.Strategy)
	}
	if cfg.Strategy.HoldDuration != 30*time.Second {
		t.Fatalf("expected hold 30s, got %s", cfg.Strategy.HoldDuration)
	}
	if cfg.Engine.MonitorInterval != 2*time.Second || cfg.Engine.InstrumentDelay != 10*time.Second {
		t.Fatalf("unexpected engine %+v", cfg.Engine)
	}
	if cfg.Bybit.BaseURL != "https://api.bybit.com" {
		t.Fatalf("unexpected base url %s", cfg.Bybit.BaseURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(tokenTelegramENV, "env-token")
	t.Setenv(bybitTestnetENV, "true")
	t.Setenv(operatorChatENV, "42")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("expected env token, got %s", cfg.Telegram.Token)
	}
	if cfg.Telegram.OperatorChatID != 42 {
		t.Fatalf("expected chat 42, got %d", cfg.Telegram.OperatorChatID)
	}
	if cfg.Bybit.BaseURL != "https://api-testnet.bybit.com" {
		t.Fatalf("expected testnet url, got %s", cfg.Bybit.BaseURL)
	}
}

func TestLegacyEnvNames(t *testing.T) {
	t.Setenv(legacyKeyENV, "legacy-key")
	t.Setenv(legacySecretENV, "legacy-secret")
	t.Setenv(legacyTokenENV, "legacy-token")
	t.Setenv(operatorChatENV, "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bybit.APIKey != "legacy-key" || cfg.Bybit.APISecret != "legacy-secret" || cfg.Telegram.Token != "legacy-token" {
		t.Fatalf("legacy env not applied: %+v %+v", cfg.Bybit, cfg.Telegram)
	}
}

func TestValidationFailsWithoutCredentials(t *testing.T) {
	if _, err := Load(writeConfig(t, "strategy:\n  trade_size: 5\n")); err == nil {
		t.Fatalf("expected validation error without token and keys")
	}
}
