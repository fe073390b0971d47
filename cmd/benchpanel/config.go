package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"opticsbench/panel"
)

// Config is the top-level YAML configuration for the benchpanel daemon.
//
// Keep defaults and validation centralized so the rest of the code can
// assume a well-formed config. The panel section is shared with the panel
// package, which reloads it on its own when the file changes.
type Config struct {
	// Dial layout, readouts and value tables
	Panel panel.Config `yaml:"panel"`

	// HTTP server: state WebSocket, snapshot and image endpoints
	HTTP HTTPConfig `yaml:"http"`

	// IPC configuration (used by benchctl and scripts)
	IPC IPCConfig `yaml:"ipc"`

	// Touchscreen input and gesture handling
	Input InputConfig `yaml:"input"`

	// Config file watching
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`

	// ReadOnly rejects pointer input from WebSocket clients.
	ReadOnly bool `yaml:"read_only"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type InputConfig struct {
	// Devices lists evdev touchscreens. Empty disables touch input.
	Devices []string `yaml:"devices,omitempty"`

	// Raw axis ranges reported by the touch controller.
	AxisXMin int32 `yaml:"axis_x_min"`
	AxisXMax int32 `yaml:"axis_x_max"`
	AxisYMin int32 `yaml:"axis_y_min"`
	AxisYMax int32 `yaml:"axis_y_max"`

	// GestureTimeoutMS cancels a gesture whose pointer goes silent; 0 disables it.
	GestureTimeoutMS int `yaml:"gesture_timeout_ms"`

	// TickHz is the daemon tick cadence used for gesture expiry.
	TickHz int `yaml:"tick_hz"`
}

type WatchConfig struct {
	// Enabled reloads the panel section when the config file changes.
	Enabled bool `yaml:"enabled"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Panel: panel.DefaultConfig(),
		HTTP: HTTPConfig{
			Port: defaultHTTPPort,
		},
		IPC: IPCConfig{
			SocketPath: defaultSocketPath,
		},
		Input: InputConfig{
			AxisXMax:         defaultTouchAxisMax,
			AxisYMax:         defaultTouchAxisMax,
			GestureTimeoutMS: defaultGestureTimeoutMS,
			TickHz:           defaultTickHz,
		},
		Watch: WatchConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of the defaults.
//
// Notes:
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
//   - A dials list in the file replaces the default dials entirely.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
// Each override is only applied if its pointer is non-nil.
type FlagOverrides struct {
	HTTPPort     *int
	HTTPReadOnly *bool

	IPCSocketPath *string

	InputDevices     []string
	GestureTimeoutMS *int
	TickHz           *int

	Watch *bool

	LogLevel *string
}

// Apply merges the overrides into cfg. A non-nil pointer is applied even if
// it holds a zero value.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.HTTPPort != nil {
		cfg.HTTP.Port = *o.HTTPPort
	}
	if o.HTTPReadOnly != nil {
		cfg.HTTP.ReadOnly = *o.HTTPReadOnly
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.InputDevices != nil {
		cfg.Input.Devices = o.InputDevices
	}
	if o.GestureTimeoutMS != nil {
		cfg.Input.GestureTimeoutMS = *o.GestureTimeoutMS
	}
	if o.TickHz != nil {
		cfg.Input.TickHz = *o.TickHz
	}
	if o.Watch != nil {
		cfg.Watch.Enabled = *o.Watch
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	if err := c.Panel.Validate(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}

	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port must be between 0 and 65535 (0 disables HTTP)")
	}

	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	if len(c.Input.Devices) > wsPointerStride-touchPointerBase {
		return fmt.Errorf("input.devices: at most %d devices", wsPointerStride-touchPointerBase)
	}
	if c.Input.AxisXMax <= c.Input.AxisXMin {
		return errors.New("input.axis_x_max must be > input.axis_x_min")
	}
	if c.Input.AxisYMax <= c.Input.AxisYMin {
		return errors.New("input.axis_y_max must be > input.axis_y_min")
	}
	if c.Input.GestureTimeoutMS < 0 {
		return errors.New("input.gesture_timeout_ms must be >= 0")
	}
	if c.Input.TickHz <= 0 || c.Input.TickHz > 1000 {
		return errors.New("input.tick_hz must be between 1 and 1000")
	}

	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// GestureTimeout returns the gesture timeout as a duration.
func (c *Config) GestureTimeout() time.Duration {
	return time.Duration(c.Input.GestureTimeoutMS) * time.Millisecond
}

// TouchAxes returns the configured raw axis ranges.
func (c *Config) TouchAxes() (x, y TouchAxis) {
	return TouchAxis{Min: c.Input.AxisXMin, Max: c.Input.AxisXMax},
		TouchAxis{Min: c.Input.AxisYMin, Max: c.Input.AxisYMax}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
