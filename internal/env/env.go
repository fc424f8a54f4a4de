package env

import (
	"os"
	"path/filepath"
)

const (
	defaultXDGConfigDirname = ".config"
	defaultXDGDataDirname   = ".local/share"
)

var (
	POI_CONFIG_PATH string

	POI_LOG_PATH string
)

func init() {
	// https://github.com/charmbracelet/log/issues/35
	os.Setenv("CLICOLOR_FORCE", "1")

	// Follow https://specifications.freedesktop.org/basedir-spec/latest/
	if e := os.Getenv("POI_CONFIG_PATH"); e == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				panic(err)
			}
			configDir = filepath.Join(homeDir, defaultXDGConfigDirname)
		}
		POI_CONFIG_PATH = filepath.Join(configDir, "poi", "config.yaml")
	} else {
		POI_CONFIG_PATH = e
	}

	if e := os.Getenv("POI_LOG_PATH"); e == "" {
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				panic(err)
			}
			dataDir = filepath.Join(homeDir, defaultXDGDataDirname)
		}
		POI_LOG_PATH = filepath.Join(dataDir, "poi", "debug.log")
	} else {
		POI_LOG_PATH = e
	}
}

// DataHome returns the XDG data home directory, falling back to
// ~/.local/share when XDG_DATA_HOME is unset or empty.
func DataHome() (string, error) {
	if dataDir := os.Getenv("XDG_DATA_HOME"); dataDir != "" {
		return dataDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, defaultXDGDataDirname), nil
}
