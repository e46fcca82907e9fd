package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/p1_obis_reader/pkg/pathing"
)

var (
	ActiveInterpreterAPIConfig *InterpreterAPIConfig
	ActiveMeterCollectorConfig *MeterCollectorConfig
)

func DefaultInterpreterAPIConfig() *InterpreterAPIConfig {
	return &InterpreterAPIConfig{
		SerialDevice:     "/dev/ttyUSB0",
		Baudrate:         115200,
		DataBits:         8,
		Parity:           "none",
		StopBits:         1,
		RequestPinChip:   "gpiochip0",
		RequestPinOffset: -1,
		BufferSize:       1500,
		ReadTimeoutMs:    12000,
		ReadIntervalMs:   5000,
		ListenAddress:    "0.0.0.0",
		ListenPort:       9039,
		DeviceName:       "p1reader",
		LogLevel:         "info",
	}
}

func DefaultMeterCollectorConfig() *MeterCollectorConfig {
	return &MeterCollectorConfig{
		InterpreterAPIHost:  "localhost:9039",
		TLSEnabled:          false,
		AggregationSchedule: "5 * * * *",
		RetentionMonths:     3,
		LogLevel:            "info",
	}
}

func LoadInterpreterAPIConfig() error {
	cfg, err := LoadInterpreterAPIConfigFrom(filepath.Join(pathing.GetConfigDir(), "interpreter_api.toml"))
	if err != nil {
		return err
	}
	ActiveInterpreterAPIConfig = cfg
	return nil
}

func LoadMeterCollectorConfig() error {
	cfg, err := LoadMeterCollectorConfigFrom(filepath.Join(pathing.GetConfigDir(), "meter_collector.toml"))
	if err != nil {
		return err
	}
	ActiveMeterCollectorConfig = cfg
	return nil
}

func LoadInterpreterAPIConfigFrom(configPath string) (*InterpreterAPIConfig, error) {
	return loadOrCreate(configPath, DefaultInterpreterAPIConfig())
}

func LoadMeterCollectorConfigFrom(configPath string) (*MeterCollectorConfig, error) {
	return loadOrCreate(configPath, DefaultMeterCollectorConfig())
}

// loadOrCreate writes defaults to configPath if there is no file yet.
// Keys missing from an existing file keep their default value.
func loadOrCreate[T any](configPath string, defaults *T) (*T, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return nil, err
		}
		defer cfgFile.Close()
		if err := toml.NewEncoder(cfgFile).Encode(defaults); err != nil {
			return nil, fmt.Errorf("write default config %s: %w", configPath, err)
		}
		return defaults, nil
	}

	// Load existing config
	if _, err := toml.DecodeFile(configPath, defaults); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	return defaults, nil
}
