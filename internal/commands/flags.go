package commands

import (
	"os"
	"path/filepath"

	"github.com/reviewloop/octoreview/internal/core/config"
)

// Flags are the root command's global flags plus the state populated for
// every subcommand by the root's Before hook.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands.
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "octoreview", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "octoreview")
}

// DefaultLogFile returns the default log file path, rooted under dataDir.
func DefaultLogFile(dataDir string) string {
	return filepath.Join(dataDir, "octoreview.log")
}
