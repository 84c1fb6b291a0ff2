package notifynewappointment

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool           `mapstructure:"enabled"`
	MaxJobsActive int            `mapstructure:"max_jobs_active"`
	Timeout       time.Duration  `mapstructure:"timeout"`
	Location      *time.Location `mapstructure:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		Location:      time.UTC,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Location == nil {
		return fmt.Errorf("location is required")
	}
	return nil
}
