package pathing

import (
	"os"
	"path/filepath"
)

// EnsureDirectories creates the directories the binaries write to.
func EnsureDirectories() error {
	dirs := []string{
		GetDataDir(),
		GetConfigDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func GetMeterDbPath() string {
	return filepath.Join(GetDataDir(), "p1-readings.db")
}

func GetDataDir() string {
	if dir := os.Getenv("P1_DATA_DIR"); dir != "" {
		return dir
	}
	return "/var/lib/p1_obis_reader"
}

func GetConfigDir() string {
	if dir := os.Getenv("P1_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "/etc/p1_obis_reader"
}
