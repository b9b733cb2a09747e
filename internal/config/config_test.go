// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes the given YAML content to a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

auth:
  token: "super-secret"
  identity: "storefront"
  capabilities:
    storefront:
      - "catalog"
      - "orders"

stream:
  poll_interval: "100ms"
  heartbeat_interval: "5s"
  idle_timeout: "2m"
  message_ttl: "90s"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Auth.Token != "super-secret" {
		t.Errorf("Auth.Token = %q, want %q", cfg.Auth.Token, "super-secret")
	}
	if cfg.Auth.Identity != "storefront" {
		t.Errorf("Auth.Identity = %q, want %q", cfg.Auth.Identity, "storefront")
	}
	if got := cfg.Auth.Capabilities["storefront"]; len(got) != 2 {
		t.Errorf("Auth.Capabilities[storefront] = %v, want 2 entries", got)
	}
	if cfg.Stream.PollInterval != 100*time.Millisecond {
		t.Errorf("Stream.PollInterval = %v, want 100ms", cfg.Stream.PollInterval)
	}
	if cfg.Stream.HeartbeatInterval != 5*time.Second {
		t.Errorf("Stream.HeartbeatInterval = %v, want 5s", cfg.Stream.HeartbeatInterval)
	}
	if cfg.Stream.IdleTimeout != 2*time.Minute {
		t.Errorf("Stream.IdleTimeout = %v, want 2m", cfg.Stream.IdleTimeout)
	}
	if cfg.Stream.MessageTTL != 90*time.Second {
		t.Errorf("Stream.MessageTTL = %v, want 90s", cfg.Stream.MessageTTL)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Stream.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default %v", cfg.Stream.PollInterval, DefaultPollInterval)
	}
	if cfg.Stream.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("HeartbeatInterval = %v, want default %v", cfg.Stream.HeartbeatInterval, DefaultHeartbeatInterval)
	}
	if cfg.Stream.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("IdleTimeout = %v, want default %v", cfg.Stream.IdleTimeout, DefaultIdleTimeout)
	}
	if cfg.Stream.DebugIdleTimeout != DefaultDebugIdleTimeout {
		t.Errorf("DebugIdleTimeout = %v, want default %v", cfg.Stream.DebugIdleTimeout, DefaultDebugIdleTimeout)
	}
	if cfg.Stream.MessageTTL != DefaultMessageTTL {
		t.Errorf("MessageTTL = %v, want default %v", cfg.Stream.MessageTTL, DefaultMessageTTL)
	}
	if cfg.Auth.Identity != DefaultIdentity {
		t.Errorf("Auth.Identity = %q, want default %q", cfg.Auth.Identity, DefaultIdentity)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("HEARTH_TEST_TOKEN", "expanded-secret")

	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
auth:
  token: "${HEARTH_TEST_TOKEN}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.Token != "expanded-secret" {
		t.Errorf("Auth.Token = %q, want %q", cfg.Auth.Token, "expanded-secret")
	}
}

func TestLoad_UnsetEnvVarExpandsEmpty(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
auth:
  token: "${HEARTH_DEFINITELY_UNSET_VAR}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.Token != "" {
		t.Errorf("Auth.Token = %q, want empty", cfg.Auth.Token)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
stream:
  idle_timeout: "not-a-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "idle_timeout") {
		t.Errorf("error = %v, want mention of idle_timeout", err)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing http_addr",
			content: "database:\n  path: ./test.db\n",
			wantErr: "server.http_addr",
		},
		{
			name:    "missing database path",
			content: "server:\n  http_addr: \":8080\"\n",
			wantErr: "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestIdleTimeoutFor(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if got := cfg.IdleTimeoutFor("debug"); got != DefaultDebugIdleTimeout {
		t.Errorf("IdleTimeoutFor(debug) = %v, want %v", got, DefaultDebugIdleTimeout)
	}
	if got := cfg.IdleTimeoutFor("info"); got != DefaultIdleTimeout {
		t.Errorf("IdleTimeoutFor(info) = %v, want %v", got, DefaultIdleTimeout)
	}
}
