package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PriceRetentionDays != 90 {
		t.Errorf("PriceRetentionDays = %d, want 90", cfg.PriceRetentionDays)
	}
	if cfg.CheckpointJoinThreshold != 3 {
		t.Errorf("CheckpointJoinThreshold = %d, want 3", cfg.CheckpointJoinThreshold)
	}
	if cfg.SetWriterConcurrency != 30 {
		t.Errorf("SetWriterConcurrency = %d, want 30", cfg.SetWriterConcurrency)
	}
}

func TestLoadRespectsEnv(t *testing.T) {
	os.Setenv("MTGJSON_DEBUG", "true")
	os.Setenv("MTGJSON_OUTPUT_PATH", "/tmp/mtgjson-out")
	defer os.Unsetenv("MTGJSON_DEBUG")
	defer os.Unsetenv("MTGJSON_OUTPUT_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("expected Debug=true from MTGJSON_DEBUG")
	}
	if cfg.OutputRoot != "/tmp/mtgjson-out" {
		t.Errorf("OutputRoot = %q, want /tmp/mtgjson-out", cfg.OutputRoot)
	}
}
