package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// CrawlerConfig drives the scheduling loop. QueryInterval is in minutes;
// zero means the 60 second default. Working hours are optional "HH:MM"
// boundaries; both unset (or both "00:00") means the crawler runs all day.
type CrawlerConfig struct {
	QueryInterval           int     `mapstructure:"query_interval"`
	WorkingHoursFrom        string  `mapstructure:"working_hours_from" validate:"omitempty,datetime=15:04"`
	WorkingHoursTo          string  `mapstructure:"working_hours_to" validate:"omitempty,datetime=15:04"`
	SimilarityWindowMinutes int     `mapstructure:"similarity_window_minutes"`
	RendererURL             string  `mapstructure:"renderer_url" validate:"omitempty,url"`
	MaxRequestsPerSecond    float32 `mapstructure:"max_requests_per_second"`
}

func (config CrawlerConfig) validate() error {
	return validator.New().Struct(config)
}

func (config CrawlerConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("crawler.query_interval", "QUERY_INTERVAL"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("crawler.working_hours_from", "WORKING_HOURS_FROM"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("crawler.working_hours_to", "WORKING_HOURS_TO"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("crawler.renderer_url", "RENDERER_URL"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
