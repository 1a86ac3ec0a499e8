package config

import "github.com/spf13/viper"

// GeoConfig holds the Mapbox geocoding access. An empty token disables
// geo-enrichment; the pipeline passes listings through unmodified.
type GeoConfig struct {
	MapboxToken          string  `mapstructure:"mapbox_token"`
	MaxRequestsPerSecond float32 `mapstructure:"max_requests_per_second"`
}

func (config GeoConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("geo.mapbox_token", "MAPBOX_TOKEN")
}
