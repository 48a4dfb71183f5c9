package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/psychopy/liaison/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liaison.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	testlog.Start(t)

	path := writeConfig(t, `
host = "0.0.0.0"
port = 9100
cors_origins = ["https://run.example.org"]
auth_token = "s3cret"
message_history = 32
idle_timeout = "90s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 9100 {
		t.Fatalf("unexpected listen settings: %+v", cfg)
	}
	if cfg.Addr() != "0.0.0.0:9100" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://run.example.org" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.AuthToken != "s3cret" || cfg.MessageHistory != 32 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.IdleTimeout != 90*time.Second {
		t.Fatalf("unexpected idle timeout %v", cfg.IdleTimeout)
	}
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	testlog.Start(t)

	path := writeConfig(t, `port = 9100`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Host != def.Host || cfg.MessageHistory != def.MessageHistory {
		t.Fatalf("expected defaults preserved, got %+v", cfg)
	}
	if cfg.Port != 9100 {
		t.Fatalf("expected override applied, got %d", cfg.Port)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad toml", `host = `},
		{"bad duration", `idle_timeout = "soon"`},
		{"port out of range", `port = 70000`},
		{"empty host", `host = ""`},
		{"negative history", `message_history = -1`},
		{"tls without cert", `tls_enabled = true`},
	}
	for _, tc := range cases {
		if _, err := Load(writeConfig(t, tc.body)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
