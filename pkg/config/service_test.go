package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInterpreterAPIConfigFrom_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interpreter_api.toml")

	cfg, err := LoadInterpreterAPIConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterpreterAPIConfig(), cfg)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `serial_device = "/dev/ttyUSB0"`)

	again, err := LoadInterpreterAPIConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadInterpreterAPIConfigFrom_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interpreter_api.toml")
	require.NoError(t, os.WriteFile(path, []byte("baudrate = 9600\ndata_bits = 7\nrequest_pin_offset = 14\n"), 0644))

	cfg, err := LoadInterpreterAPIConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, uint(9600), cfg.Baudrate)
	assert.Equal(t, uint(7), cfg.DataBits)
	assert.Equal(t, 14, cfg.RequestPinOffset)
	assert.Equal(t, 1500, cfg.BufferSize)
}

func TestLoadMeterCollectorConfigFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meter_collector.toml")
	require.NoError(t, os.WriteFile(path, []byte("retention_months = \"three\"\n"), 0644))

	_, err := LoadMeterCollectorConfigFrom(path)
	assert.Error(t, err)
}
