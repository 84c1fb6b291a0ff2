// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Store         StoreConfig             `mapstructure:"store"`
	Redis         RedisConfig             `mapstructure:"redis"`
	RabbitMQ      RabbitMQConfig          `mapstructure:"rabbitmq"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Push          PushConfig              `mapstructure:"push"`
	Gateway       GatewayConfig           `mapstructure:"gateway"`
	Reminders     RemindersConfig         `mapstructure:"reminders"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	AWS           AWSConfig               `mapstructure:"aws"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// Timezone used for "today" when labelling appointment notifications.
	Timezone string `mapstructure:"timezone"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds

	// DeployResources are BPMN files deployed on startup.
	DeployResources []string `mapstructure:"deploy_resources"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver   string         `mapstructure:"driver"` // postgres | mongo
	Postgres PostgresConfig `mapstructure:"postgres"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RabbitMQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
	Prefetch int    `mapstructure:"prefetch"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Specific Configuration Sections ---

// PushConfig maps push topics onto SNS topic ARNs.
type PushConfig struct {
	Region         string `mapstructure:"region"`
	TopicARNPrefix string `mapstructure:"topic_arn_prefix"`
}

// GatewayConfig holds the chat gateway credentials. InstanceID and Token are
// checked on every send, not at startup.
type GatewayConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	InstanceID string `mapstructure:"instance_id"`
	Token      string `mapstructure:"token"`
}

type RemindersConfig struct {
	Timezone         string `mapstructure:"timezone"`
	ScheduleTime     string `mapstructure:"schedule_time"` // HH:MM
	SchedulerEnabled bool   `mapstructure:"scheduler_enabled"`
	DefaultRegion    string `mapstructure:"default_region"`
	LockTTL          int    `mapstructure:"lock_ttl"` // milliseconds
}

// NotificationConfig holds the ops summary email settings.
type NotificationConfig struct {
	SummaryEmail struct {
		Enabled bool     `mapstructure:"enabled"`
		From    string   `mapstructure:"from"`
		To      []string `mapstructure:"to"`
	} `mapstructure:"summary_email"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
