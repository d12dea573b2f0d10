package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppName != "marketplace-service" {
		t.Errorf("appName = %q", cfg.AppName)
	}
	if cfg.Marketplace.Environment != "sandbox" || cfg.IsProduction() {
		t.Errorf("environment = %q, want sandbox", cfg.Marketplace.Environment)
	}
	if cfg.Sync.Dispatch != "inline" || cfg.Sync.Mode != "stocks" {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("cache ttl = %s", cfg.Cache.TTL)
	}
	if cfg.I18n.Domain != "ozon-products.mapper" {
		t.Errorf("i18n domain = %q", cfg.I18n.Domain)
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logLevel: debug
marketplace:
  environment: production
  rateLimit: 2.5
kafka:
  brokers: ["k1:9092", "k2:9092"]
sync:
  dispatch: pool
  workers: 8
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("SYNC_WORKERS", "3")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("mode", "stocks", "")
	flags.String("dispatch", "inline", "")
	if err := flags.Parse([]string{"--mode", "card"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" || !cfg.IsProduction() || cfg.Marketplace.RateLimit != 2.5 {
		t.Errorf("file values not applied: %+v", cfg.Marketplace)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("postgres host = %q", cfg.Postgres.Host)
	}
	if cfg.Sync.Workers != 3 {
		t.Errorf("workers = %d, env must override file", cfg.Sync.Workers)
	}
	if cfg.Sync.Mode != "card" {
		t.Errorf("mode = %q, flag must override default", cfg.Sync.Mode)
	}
	if cfg.Sync.Dispatch != "pool" {
		t.Errorf("dispatch = %q, unchanged flag must not override file", cfg.Sync.Dispatch)
	}
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Setenv("SYNC_DISPATCH", "carrier-pigeon")

	if _, err := Load(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected validation error")
	}
}
