package sendtomorrowreminders

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool           `mapstructure:"enabled"`
	MaxJobsActive int            `mapstructure:"max_jobs_active"`
	Timeout       time.Duration  `mapstructure:"timeout"`
	Location      *time.Location `mapstructure:"-"`

	// DefaultRegion is the ISO country used for phone numbers without a
	// country code.
	DefaultRegion string        `mapstructure:"default_region"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	Summary       SummaryConfig `mapstructure:"summary"`
}

type SummaryConfig struct {
	Enabled bool
	From    string
	To      []string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       10 * time.Minute,
		Location:      time.UTC,
		DefaultRegion: "SA",
		LockTTL:       15 * time.Minute,
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
	if c.LockTTL <= 0 {
		return fmt.Errorf("lock_ttl must be positive")
	}
	if c.Summary.Enabled && (c.Summary.From == "" || len(c.Summary.To) == 0) {
		return fmt.Errorf("summary email requires from and to")
	}
	return nil
}
