package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalSettings are remembered between runs of the CLI.
type LocalSettings struct {
	FarmID  uint64 `json:"farmId,omitempty"`
	DataDir string `json:"dataDir,omitempty"`
}

// settingsPath is overridden in tests.
var settingsPath = ConfigFilename

func ConfigFilename() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	cfgPath := filepath.Join(cfgDir, "gemfarm", "gemfarm.json")
	err = os.MkdirAll(filepath.Dir(cfgPath), 0775) // user+group RWX, others RX
	if err != nil {
		return "", fmt.Errorf("error making directory:%s, error:%w", cfgDir, err)
	}
	return cfgPath, nil
}

// LoadSettings returns empty settings when none have been saved yet.
func LoadSettings() (*LocalSettings, error) {
	cfgName, err := settingsPath()
	if err != nil {
		return nil, err
	}
	file, err := os.Open(cfgName)
	if errors.Is(err, os.ErrNotExist) {
		return &LocalSettings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var settings LocalSettings
	if err = json.NewDecoder(file).Decode(&settings); err != nil {
		return nil, fmt.Errorf("error reading settings from %s: %w", cfgName, err)
	}
	return &settings, nil
}

// SaveSettings writes to a temp file first and replaces the settings file
// only once it's fully written.
func SaveSettings(settings *LocalSettings) error {
	cfgName, err := settingsPath()
	if err != nil {
		return err
	}
	temp, err := os.CreateTemp(filepath.Dir(cfgName), filepath.Base(cfgName)+".*")
	if err != nil {
		return err
	}
	err = json.NewEncoder(temp).Encode(settings)
	if err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return fmt.Errorf("error saving settings: %w", err)
	}
	if err = temp.Close(); err != nil {
		return err
	}
	if err = os.Rename(temp.Name(), cfgName); err != nil {
		return err
	}
	slog.Info("settings saved", "file", cfgName)
	return nil
}
