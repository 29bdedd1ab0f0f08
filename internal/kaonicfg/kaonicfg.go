// Package kaonicfg loads the daemon's configuration: the mesh parameters of
// spec §3, the RPC listen address of spec §6, and the serial device path,
// from an optional YAML file overridden by command-line flags — the same
// YAML-plus-pflag layering the teacher pack uses for daemon configuration.
package kaonicfg

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kaonic-radio/kaonic-comm/internal/rfnet"
)

// defaultListenAddr is spec §6's "Listen bind" default.
const defaultListenAddr = "0.0.0.0:8080"

const defaultSerialDevice = "/dev/ttyKaonic0"

// Mesh mirrors rfnet.Config in YAML-friendly form (durations as
// human-readable strings rather than time.Duration's raw int64).
type Mesh struct {
	PacketPattern  uint16 `yaml:"packet_pattern"`
	SlotDuration   string `yaml:"slot_duration"`
	GapDuration    string `yaml:"gap_duration"`
	BeaconInterval string `yaml:"beacon_interval"`
}

func (m Mesh) toRFNetConfig() (rfnet.Config, error) {
	cfg := rfnet.Config{PacketPattern: m.PacketPattern}
	var err error
	if cfg.SlotDuration, err = parseDurationOrZero(m.SlotDuration); err != nil {
		return cfg, fmt.Errorf("mesh.slot_duration: %w", err)
	}
	if cfg.GapDuration, err = parseDurationOrZero(m.GapDuration); err != nil {
		return cfg, fmt.Errorf("mesh.gap_duration: %w", err)
	}
	if cfg.BeaconInterval, err = parseDurationOrZero(m.BeaconInterval); err != nil {
		return cfg, fmt.Errorf("mesh.beacon_interval: %w", err)
	}
	return cfg, nil
}

func parseDurationOrZero(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Config is the daemon's full configuration.
type Config struct {
	ListenAddr   string `yaml:"listen_addr"`
	SerialDevice string `yaml:"serial_device"`
	Mesh         Mesh   `yaml:"mesh"`
}

// Defaults returns a Config with the spec's documented defaults.
func Defaults() Config {
	return Config{
		ListenAddr:   defaultListenAddr,
		SerialDevice: defaultSerialDevice,
	}
}

// Load reads a YAML config file at path, if it exists, layered over
// Defaults(). A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("kaonicfg: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("kaonicfg: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags registers command-line overrides for cfg's fields onto fs, the same
// layering the daemon's entrypoint uses: file defaults, then flag overrides.
func Flags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "RPC listen address")
	fs.StringVar(&cfg.SerialDevice, "serial", cfg.SerialDevice, "serial device path")
}

// MeshConfig resolves the YAML mesh block into an rfnet.Config.
func (c Config) MeshConfig() (rfnet.Config, error) {
	return c.Mesh.toRFNetConfig()
}
