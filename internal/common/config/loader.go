// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	// 🔧 FIX: Load .env from multiple possible locations
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GATEWAY_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// 1️⃣ LOAD BASE CONFIG
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// 2️⃣ LOAD ENV CONFIG
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	// 3️⃣ EXPAND ENV PLACEHOLDERS
	expandEnvVars(viper.GetViper())

	// 4️⃣ Unmarshal final config
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// 5️⃣ DIRECT OVERRIDE IF STILL EMPTY
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// 🔥 FIX: Load .env from multiple possible locations
func loadEnvFile() {
	// Try multiple paths (for running from different directories)
	possiblePaths := []string{
		".env",                    // Current directory
		"../.env",                 // Parent directory
		"../../.env",              // Two levels up (cmd/<binary>)
		"../../../.env",           // Three levels up
	}

	// Also try to find project root by looking for go.mod
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("✅ Loaded .env from: %s\n", path)
				return
			}
		}
	}

	fmt.Printf("⚠️  .env file not found in any location, using system environment variables\n")
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Walk up directories looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders. An unset variable leaves the
// key empty so defaults, overrides and validation see it as missing.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "${") {
			continue
		}
		v.Set(key, os.ExpandEnv(strVal))
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	overrideString(&cfg.Gateway.InstanceID, "GATEWAY_INSTANCE_ID")
	overrideString(&cfg.Gateway.Token, "GATEWAY_TOKEN")
	overrideString(&cfg.Store.Postgres.User, "DB_USER")
	overrideString(&cfg.Store.Postgres.Password, "DB_PASSWORD")
	overrideString(&cfg.Store.Mongo.URI, "MONGO_URI")
	overrideString(&cfg.RabbitMQ.URL, "RABBITMQ_URL")
	overrideString(&cfg.Push.TopicARNPrefix, "PUSH_TOPIC_ARN_PREFIX")
}

func overrideString(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile() // Load env file first

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Expand environment variables before unmarshal
	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "clinic-notify-workers"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = DefaultTimezone
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Store defaults
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "postgres"
	}
	if cfg.Store.Postgres.Port == 0 {
		cfg.Store.Postgres.Port = 5432
	}
	if cfg.Store.Postgres.MaxConnections == 0 {
		cfg.Store.Postgres.MaxConnections = 25
	}
	if cfg.Store.Postgres.MaxIdle == 0 {
		cfg.Store.Postgres.MaxIdle = 5
	}
	if cfg.Store.Postgres.SSLMode == "" {
		cfg.Store.Postgres.SSLMode = "disable"
	}
	if cfg.Store.Mongo.ConnectTimeout == 0 {
		cfg.Store.Mongo.ConnectTimeout = 10000
	}

	// Change feed defaults
	if cfg.RabbitMQ.Exchange == "" {
		cfg.RabbitMQ.Exchange = "clinic.documents"
	}
	if cfg.RabbitMQ.Queue == "" {
		cfg.RabbitMQ.Queue = "notification-workers"
	}
	if cfg.RabbitMQ.Prefetch == 0 {
		cfg.RabbitMQ.Prefetch = 10
	}

	// Push / gateway defaults
	if cfg.Push.Region == "" {
		cfg.Push.Region = cfg.AWS.Region
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = DefaultGatewayBaseURL
	}

	// Reminder sweep defaults
	if cfg.Reminders.Timezone == "" {
		cfg.Reminders.Timezone = DefaultTimezone
	}
	if cfg.Reminders.ScheduleTime == "" {
		cfg.Reminders.ScheduleTime = "09:00"
	}
	if cfg.Reminders.DefaultRegion == "" {
		cfg.Reminders.DefaultRegion = "SA"
	}
	if cfg.Reminders.LockTTL == 0 {
		cfg.Reminders.LockTTL = 15 * 60 * 1000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig checks what every binary needs: the store, the time zones
// and the summary email. Gateway credentials are checked at the first
// dispatch.
func validateConfig(cfg *Config) error {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.Postgres.Host == "" {
			return fmt.Errorf("store.postgres.host is required")
		}
		if cfg.Store.Postgres.Database == "" {
			return fmt.Errorf("store.postgres.database is required")
		}
		if cfg.Store.Postgres.User == "" {
			return fmt.Errorf("store.postgres.user is required")
		}
	case "mongo":
		if cfg.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required")
		}
		if cfg.Store.Mongo.Database == "" {
			return fmt.Errorf("store.mongo.database is required")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", cfg.Store.Driver)
	}

	if _, err := time.LoadLocation(cfg.Reminders.Timezone); err != nil {
		return fmt.Errorf("reminders.timezone: %w", err)
	}
	if _, err := time.LoadLocation(cfg.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}

	if cfg.Notifications.SummaryEmail.Enabled {
		if cfg.Notifications.SummaryEmail.From == "" || len(cfg.Notifications.SummaryEmail.To) == 0 {
			return fmt.Errorf("notifications.summary_email.from and to are required when enabled")
		}
	}

	return nil
}

// ValidateManager checks the settings only the long-running manager uses:
// the Zeebe broker, the change feed and push topics.
func ValidateManager(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.RabbitMQ.Enabled && cfg.RabbitMQ.URL == "" {
		return fmt.Errorf("rabbitmq.url is required")
	}
	if cfg.Push.TopicARNPrefix == "" {
		return fmt.Errorf("push.topic_arn_prefix is required")
	}
	return nil
}

const (
	DefaultTimezone       = "Asia/Riyadh"
	DefaultGatewayBaseURL = "https://api.ultramsg.com"
)

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	// Return default worker config if not found
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
