package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.AuditKafkaTopic != "signage-audit" {
		t.Errorf("AuditKafkaTopic = %q, want %q", cfg.AuditKafkaTopic, "signage-audit")
	}
	if cfg.KafkaGroupID != "signage-audit-worker" {
		t.Errorf("KafkaGroupID = %q, want %q", cfg.KafkaGroupID, "signage-audit-worker")
	}
	if got := cfg.FreshTTL(); got != 60*time.Second {
		t.Errorf("FreshTTL = %v, want 60s", got)
	}
	if got := cfg.SubFetchTimeout(); got != 5*time.Second {
		t.Errorf("SubFetchTimeout = %v, want 5s", got)
	}
	if got := cfg.SendTimeout(); got != 2*time.Second {
		t.Errorf("SendTimeout = %v, want 2s", got)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("DASHBOARD_FRESH_TTL", "30s")
	os.Setenv("UPSTREAM_BASE_URL", "http://upstream:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if got := cfg.FreshTTL(); got != 30*time.Second {
		t.Errorf("FreshTTL = %v, want 30s", got)
	}
	if cfg.UpstreamBaseURL != "http://upstream:9000" {
		t.Errorf("UpstreamBaseURL = %q", cfg.UpstreamBaseURL)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject BCRYPT_COST outside 4..31")
	}
}

func TestLoad_DurationFallbacks(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("DASHBOARD_FRESH_TTL", "not-a-duration")
	os.Setenv("BROADCAST_SEND_TIMEOUT", "-5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.FreshTTL(); got != 60*time.Second {
		t.Errorf("FreshTTL fallback = %v, want 60s", got)
	}
	if got := cfg.SendTimeout(); got != 2*time.Second {
		t.Errorf("SendTimeout fallback = %v, want 2s", got)
	}
}

func TestAuditKafkaBrokersList(t *testing.T) {
	cfg := &Config{AuditKafkaBrokers: "localhost:9092, broker2:9092 ,,"}
	got := cfg.AuditKafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("AuditKafkaBrokersList = %v", got)
	}

	var nilCfg *Config
	if nilCfg.AuditKafkaBrokersList() != nil {
		t.Error("nil config should return nil broker list")
	}
}
