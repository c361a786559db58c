package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the service configuration. Provider credentials are not here:
// they live at their canonical environment names (DEEPSEEK_API_KEY, ...) and
// are resolved by the provider registry.
type Config struct {
	Address      string `mapstructure:"address"`
	LogLevel     string `mapstructure:"log_level"`
	DefaultModel string `mapstructure:"default_model"`
	ModelsPath   string `mapstructure:"models_path"`
	TelemetryURL string `mapstructure:"telemetry_url"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// allow environment variables like IDEAFORGE_ADDRESS
	v.SetEnvPrefix("IDEAFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("address", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("default_model", "deepseek-chat")
	v.SetDefault("models_path", "")
	v.SetDefault("telemetry_url", "")

	if err := v.ReadInConfig(); err != nil {
		// don't fail if config file is missing, allow env-only config
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
