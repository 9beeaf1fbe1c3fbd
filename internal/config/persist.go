package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ezeeEric/batchbuddha/internal/utils"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "batchbuddha"

// ConfigType is the type of config file
const ConfigType = "yaml"

// EnvPrefix prefixes environment overrides, e.g. BATCHBUDDHA_TESTRUN=true.
const EnvPrefix = "BATCHBUDDHA"

// InitViper prepares v and reads the sweep config.
// Priority (highest to lowest):
// 1. Command-line flags (bound by cobra)
// 2. Environment variables (BATCHBUDDHA_*)
// 3. Config file: configFile if given, else batchbuddha.yaml in the current
//    directory or $XDG_CONFIG_HOME/batchbuddha
// 4. Defaults
//
// An explicit configFile must exist; a missing searched file is not an error.
func InitViper(v *viper.Viper, configFile string) error {
	v.SetConfigType(ConfigType)
	if configFile != "" {
		if !utils.FileExists(configFile) {
			return fmt.Errorf("config file %s not found", configFile)
		}
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigFilename)
		v.AddConfigPath(".")
		if dir := userConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			utils.PrintDebug("No %s.%s found, using defaults and environment", ConfigFilename, ConfigType)
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	utils.PrintDebug("Using config file %s", utils.StylePath(v.ConfigFileUsed()))
	return nil
}

// setDefaults sets default values for all config keys
func setDefaults(v *viper.Viper) {
	v.SetDefault("outputFolderName", "output")
	v.SetDefault("logOutputFolder", "logs")
	v.SetDefault("baseOutputDir", defaultBaseOutputDir())
	v.SetDefault("testRun", false)
	v.SetDefault("dumpSubmitCommandsToFile", false)

	// Scheduler resources
	v.SetDefault("time", "01:00:00")
	v.SetDefault("cores", 1)
	v.SetDefault("memory", "4G")
	v.SetDefault("local_scratch", "localscratch")
	v.SetDefault("launcher", "")

	v.SetDefault("deferredSetup", "module load python/3.6")
	v.SetDefault("deferredScriptDir", ".")
}

// userConfigDir returns $XDG_CONFIG_HOME/batchbuddha or its ~/.config fallback.
func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "batchbuddha")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "batchbuddha")
	}
	return ""
}

// defaultBaseOutputDir puts sweep output on $SCRATCH when the cluster has one.
func defaultBaseOutputDir() string {
	if scratch := os.Getenv("SCRATCH"); scratch != "" {
		return filepath.Join(scratch, "batchbuddha")
	}
	return "."
}
