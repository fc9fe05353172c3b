package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------

const validYAML = `
name: "ChartBridge"
host: "127.0.0.1"
port: 8090
log_level: "info"
storage:
  db_type: "sqlite"
  db_path: "./test.db"
network:
  timeout: 15
  retries: 3
venue:
  rest_url: "https://venue.example"
  ws_url: "wss://venue.example/ws"
  app_id: "ChartBridge"
stream:
  phase_timeout_seconds: 10
  heartbeat_seconds: 5
  auth_delay_ms: 250
symbols:
  - "AAPL"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigLoadsValidFile(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Name != "ChartBridge" || cfg.Port != 8090 {
		t.Errorf("unexpected config %+v", cfg.MConfig)
	}
	if cfg.Venue.WsURL != "wss://venue.example/ws" {
		t.Errorf("ws_url %q", cfg.Venue.WsURL)
	}
	if len(cfg.Symbols) != 1 || cfg.Symbols[0] != "AAPL" {
		t.Errorf("symbols %v", cfg.Symbols)
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigAppliesStreamDefaults(t *testing.T) {
	content := strings.Replace(validYAML, `stream:
  phase_timeout_seconds: 10
  heartbeat_seconds: 5
  auth_delay_ms: 250
`, "", 1)

	cfg, err := NewConfig(writeConfig(t, content))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Stream.PhaseTimeoutSeconds != 10 {
		t.Errorf("phase timeout default: %d", cfg.Stream.PhaseTimeoutSeconds)
	}
	if cfg.Stream.HeartbeatSeconds != 5 {
		t.Errorf("heartbeat default: %d", cfg.Stream.HeartbeatSeconds)
	}
	if cfg.Stream.AuthDelayMs != 250 {
		t.Errorf("auth delay default: %d", cfg.Stream.AuthDelayMs)
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		errPart string
	}{
		{
			name:    "privileged port",
			mutate:  func(s string) string { return strings.Replace(s, "port: 8090", "port: 80", 1) },
			errPart: "port",
		},
		{
			name:    "missing venue ws_url",
			mutate:  func(s string) string { return strings.Replace(s, `ws_url: "wss://venue.example/ws"`, "", 1) },
			errPart: "ws_url",
		},
		{
			name:    "sqlite without path",
			mutate:  func(s string) string { return strings.Replace(s, `db_path: "./test.db"`, "", 1) },
			errPart: "path",
		},
		{
			name:    "missing name",
			mutate:  func(s string) string { return strings.Replace(s, `name: "ChartBridge"`, "", 1) },
			errPart: "name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tc.mutate(validYAML)))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Errorf("error %q does not mention %q", err, tc.errPart)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrips(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Venue.RestURL != cfg.Venue.RestURL || reloaded.Port != cfg.Port {
		t.Errorf("round trip mismatch: %+v", reloaded.MConfig)
	}
}
