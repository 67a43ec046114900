package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Quote         QuoteConfig             `mapstructure:"quote"`
	Session       SessionConfig           `mapstructure:"session"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Server        ServerConfig            `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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

	// Seconds a pooled connection may be reused.
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WorkerConfig holds the settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// Catalog sources understood by QuoteConfig.CatalogSource.
const (
	CatalogSourcePostgres      = "postgres"
	CatalogSourceElasticsearch = "elasticsearch"
)

// QuoteConfig drives the questionnaire and recommendation workers.
type QuoteConfig struct {
	CatalogSource    string `mapstructure:"catalog_source"`
	CatalogIndex     string `mapstructure:"catalog_index"`
	CatalogCacheTTL  int    `mapstructure:"catalog_cache_ttl"`  // seconds, 0 disables the cache
	CatalogMemoryTTL int    `mapstructure:"catalog_memory_ttl"` // seconds, 0 disables the in-process copy
	AnswersTTL       int    `mapstructure:"answers_ttl"`        // seconds
	MaxItems         int    `mapstructure:"max_items"`
}

// CatalogCacheDuration returns the catalog cache TTL.
func (q QuoteConfig) CatalogCacheDuration() time.Duration {
	return time.Duration(q.CatalogCacheTTL) * time.Second
}

// CatalogMemoryDuration returns how long a worker keeps its in-process
// catalog copy.
func (q QuoteConfig) CatalogMemoryDuration() time.Duration {
	return time.Duration(q.CatalogMemoryTTL) * time.Second
}

// AnswersDuration returns how long submitted answers are kept.
func (q QuoteConfig) AnswersDuration() time.Duration {
	return time.Duration(q.AnswersTTL) * time.Second
}

// SessionConfig holds the login entry points per section.
type SessionConfig struct {
	LoginPaths map[string]string `mapstructure:"login_paths"`
}

// NotificationConfig holds settings for the send-quote-notification worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled           bool   `mapstructure:"enabled"`
		PriorityThreshold string `mapstructure:"priority_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region   string `mapstructure:"region"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"aws"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}
