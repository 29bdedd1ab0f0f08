package kaonicfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultListenAddr, cfg.ListenAddr)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaonic.yaml")
	content := "listen_addr: 0.0.0.0:9090\nmesh:\n  packet_pattern: 19283\n  slot_duration: 25ms\n  beacon_interval: 3s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, uint16(19283), cfg.Mesh.PacketPattern)

	mesh, err := cfg.MeshConfig()
	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, mesh.SlotDuration)
	assert.Equal(t, 3*time.Second, mesh.BeaconInterval)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	cfg := Defaults()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs, &cfg)
	require.NoError(t, fs.Parse([]string{"--listen", "127.0.0.1:1234"}))
	assert.Equal(t, "127.0.0.1:1234", cfg.ListenAddr)
}
