package config

import "github.com/spf13/viper"

type TrackingConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Secret  string `mapstructure:"secret"`
}

func (config TrackingConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("tracking.secret", "TRACKING_SECRET")
}

type MetricsConfig struct {
	Port int `mapstructure:"port"`
}
