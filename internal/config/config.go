package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/OCAP2/mapshim/internal/bitmap"
)

// FileName is the config file looked up in the config directory.
const FileName = "mapshim.cfg.json"

// LooperConfig holds owner goroutine settings
type LooperConfig struct {
	QueueSize int `json:"queueSize" mapstructure:"queueSize"`
}

// SetDefaults registers default values for every known key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("fileLogLevel", "")
	viper.SetDefault("logsDir", "./mapshimlogs")
	viper.SetDefault("logFormat", "text")

	viper.SetDefault("looper.queueSize", 256)

	viper.SetDefault("icons.assetsDir", "./assets")
	viper.SetDefault("icons.filesDir", "./files")
	viper.SetDefault("icons.decodeWorkers", 4)
	viper.SetDefault("icons.maxBytes", 8<<20)
	viper.SetDefault("icons.density", 1.0)
	viper.SetDefault("icons.resources", map[string]string{})
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetLooperConfig returns the owner goroutine settings.
func GetLooperConfig() LooperConfig {
	return LooperConfig{
		QueueSize: viper.GetInt("looper.queueSize"),
	}
}

// GetIconsConfig returns icon loading settings.
func GetIconsConfig() (bitmap.LoaderConfig, error) {
	var cfg bitmap.LoaderConfig
	if err := viper.UnmarshalKey("icons", &cfg); err != nil {
		return cfg, fmt.Errorf("error decoding icons config: %w", err)
	}
	return cfg, nil
}
