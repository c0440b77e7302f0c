package ui

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

// Config stores the dialog settings remembered between sessions.
type Config struct {
	LastLibrary      string                  `json:"last_library"`
	UpdateAllOnApply bool                    `json:"update_all_on_apply"`
	DarkMode         bool                    `json:"dark_mode"`
	Cells            circuit.CellListOptions `json:"cells"`
}

// DefaultConfig is used when no config file exists.
func DefaultConfig() *Config {
	cells := circuit.DefaultCellListOptions()
	cells.TemplateKeys = bus.TemplateKeys()
	return &Config{
		UpdateAllOnApply: true,
		Cells:            cells,
	}
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	var configDir string
	if appData := os.Getenv("APPDATA"); appData != "" {
		// Windows: use %APPDATA%\OpenTraceVLSI
		configDir = filepath.Join(appData, "OpenTraceVLSI")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		// Linux/macOS: use ~/.config/opentracevlsi
		configDir = filepath.Join(homeDir, ".config", "opentracevlsi")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the dialog configuration
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	if err := config.Cells.Validate(); err != nil {
		config.Cells.NamePattern = ""
	}

	return config, nil
}

// SaveConfig saves the dialog configuration
func SaveConfig(config *Config) error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
