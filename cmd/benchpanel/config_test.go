package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "benchpanel.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
	if cfg.GestureTimeout() != 5*time.Second {
		t.Errorf("expected 5s gesture timeout, got %v", cfg.GestureTimeout())
	}
	if len(cfg.Panel.Dials) == 0 {
		t.Errorf("expected default dials")
	}
}

func TestLoadConfigFile_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
input:
  devices: ["/dev/input/event3"]
  axis_x_max: 1023
panel:
  width: 400
  height: 200
  dials:
    - name: amp
      kind: continuous
      x: 100
      y: 100
      radius: 40
      range: [0, 50]
`)
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.IPC.SocketPath != defaultSocketPath {
		t.Errorf("expected default socket path, got %q", cfg.IPC.SocketPath)
	}
	x, y := cfg.TouchAxes()
	if x.Max != 1023 || y.Max != defaultTouchAxisMax {
		t.Errorf("unexpected axes: %+v %+v", x, y)
	}
	if len(cfg.Panel.Dials) != 1 || cfg.Panel.Dials[0].Name != "amp" {
		t.Errorf("expected dial list to replace defaults, got %d dials", len(cfg.Panel.Dials))
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	if _, err := LoadConfigFile(""); err == nil {
		t.Errorf("expected error for empty path")
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}

	path := writeConfig(t, "htpp:\n  port: 1\n")
	if _, err := LoadConfigFile(path); err == nil || !strings.Contains(err.Error(), "htpp") {
		t.Errorf("expected unknown field error, got %v", err)
	}

	path = writeConfig(t, "http:\n  port: 1\n---\nhttp:\n  port: 2\n")
	if _, err := LoadConfigFile(path); err == nil || !strings.Contains(err.Error(), "trailing") {
		t.Errorf("expected trailing document error, got %v", err)
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	port := 0
	timeout := 0
	level := "debug"
	FlagOverrides{
		HTTPPort:         &port,
		GestureTimeoutMS: &timeout,
		InputDevices:     []string{"/dev/input/event1", "/dev/input/event2"},
		LogLevel:         &level,
	}.Apply(&cfg)

	if cfg.HTTP.Port != 0 || cfg.Input.GestureTimeoutMS != 0 || cfg.Logging.Level != "debug" {
		t.Errorf("expected zero-value overrides to apply, got %+v", cfg)
	}
	if len(cfg.Input.Devices) != 2 {
		t.Errorf("expected 2 devices, got %v", cfg.Input.Devices)
	}
	if cfg.IPC.SocketPath != defaultSocketPath {
		t.Errorf("expected untouched socket path, got %q", cfg.IPC.SocketPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected overridden config to validate, got %v", err)
	}
}

func TestConfig_ValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"panel", func(c *Config) { c.Panel.Dials = nil }, "panel"},
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"socket", func(c *Config) { c.IPC.SocketPath = "" }, "ipc.socket_path"},
		{"device", func(c *Config) { c.Input.Devices = []string{""} }, "input.devices[0]"},
		{"axis", func(c *Config) { c.Input.AxisXMax = c.Input.AxisXMin }, "axis_x_max"},
		{"timeout", func(c *Config) { c.Input.GestureTimeoutMS = -1 }, "gesture_timeout_ms"},
		{"tick", func(c *Config) { c.Input.TickHz = 0 }, "tick_hz"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/x.yaml"); got != filepath.Join(home, "x.yaml") {
		t.Errorf("expected %q, got %q", filepath.Join(home, "x.yaml"), got)
	}
	if got := ExpandPath("/etc/x.yaml"); got != "/etc/x.yaml" {
		t.Errorf("expected absolute path unchanged, got %q", got)
	}
	if got := ExpandPath("~user/x"); got != "~user/x" {
		t.Errorf("expected ~user form unchanged, got %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"DEBUG": LogLevelDebug, "warning": LogLevelWarn, "error": LogLevelError} {
		got, err := parseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLogLevel(%q) = %q, %v; expected %q", in, got, err, want)
		}
	}
	if _, err := parseLogLevel("verbose"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}
