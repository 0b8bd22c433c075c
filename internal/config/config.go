package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from YAML with
// environment-variable overrides for secrets.
type Config struct {
	Gemini struct {
		APIKey     string            `yaml:"api_key"`
		Model      string            `yaml:"model"`
		TaskModels map[string]string `yaml:"task_models"` // per-task model overrides
	} `yaml:"gemini"`

	Extractor ExtractorConfig `yaml:"extractor"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Assistant AssistantConfig `yaml:"assistant"`

	MySQL    MySQLConfig    `yaml:"mysql"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`

	Resend ResendConfig `yaml:"resend"`

	Server ServerConfig `yaml:"server"`
	Logger LoggerConfig `yaml:"logger"`

	Tracing TracingConfig `yaml:"tracing"`

	// Requests-per-minute ceilings per model, used to size the token bucket
	// for bulk rating generation.
	ModelQPMLimits map[string]int `yaml:"model_qpm_limits"`
}

// ExtractorConfig controls the structured-extraction contract.
type ExtractorConfig struct {
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	CallTimeout      string  `yaml:"call_timeout"` // per-call deadline, e.g. "60s"
	MaxRetries       int     `yaml:"max_retries"`
	RetryWaitSeconds int     `yaml:"retry_wait_seconds"`
}

// AnalyzerConfig controls the candidate/job match analyzer.
type AnalyzerConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	CallTimeout string  `yaml:"call_timeout"`
}

// AssistantConfig controls the conversational data assistant.
type AssistantConfig struct {
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	HistoryTurns   int     `yaml:"history_turns"`    // transcript bound
	MaxResumeFiles int     `yaml:"max_resume_files"` // attachment bound
	TranscriptTTL  string  `yaml:"transcript_ttl"`   // Redis expiry, e.g. "24h"
	CallTimeout    string  `yaml:"call_timeout"`
}

// MySQLConfig holds the relational store settings.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	MaxIdleConns           int `yaml:"max_idle_conns"`
	MaxOpenConns           int `yaml:"max_open_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	ConnectTimeoutSeconds  int `yaml:"connect_timeout_seconds"`
	LogLevel               int `yaml:"log_level"` // gorm logger level 1-4
}

// RedisConfig holds connection settings for Redis.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	PoolSize            int `yaml:"pool_size"`
	MinIdleConns        int `yaml:"min_idle_conns"`
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
}

// MinIOConfig holds object-storage settings.
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	ResumeBucket    string `yaml:"resumeBucket"`
	Location        string `yaml:"location"`
	PresignExpiry   string `yaml:"presign_expiry"` // e.g. "15m"
}

// RabbitMQConfig holds message-queue settings for the rating pipeline.
type RabbitMQConfig struct {
	URL                     string `yaml:"url"`
	ApplicantEventsExchange string `yaml:"applicant_events_exchange"`
	ApplicantCreatedKey     string `yaml:"applicant_created_routing_key"`
	RatingQueue             string `yaml:"rating_queue"`
	PrefetchCount           int    `yaml:"prefetch_count"`
}

// ResendConfig holds the transactional email sender settings.
type ResendConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	AppURL    string `yaml:"app_url"` // base URL embedded in invite links
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`  // e.g. ":8080"
	APIKeys string `yaml:"api_keys"` // comma-separated keys for keyauth
}

// LoggerConfig mirrors internal/logger.Config.
type LoggerConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"` // json or pretty
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// LoadConfig reads the config file at configPath, applies environment
// overrides and fills defaults. An empty path searches the usual spots and
// falls back to pure defaults when nothing is found.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		for _, p := range []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".ats-agent", "config.yaml"),
		} {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Resend.APIKey = v
	}
	if v := os.Getenv("ATS_API_KEYS"); v != "" {
		cfg.Server.APIKeys = v
	}
}

// applyDefaults fills any field the file left zero-valued.
func applyDefaults(cfg *Config) {
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Extractor.CallTimeout == "" {
		cfg.Extractor.CallTimeout = "60s"
	}
	if cfg.Extractor.MaxTokens == 0 {
		cfg.Extractor.MaxTokens = 4096
	}
	if cfg.Extractor.MaxRetries == 0 {
		cfg.Extractor.MaxRetries = 2
	}
	if cfg.Extractor.RetryWaitSeconds == 0 {
		cfg.Extractor.RetryWaitSeconds = 1
	}
	if cfg.Analyzer.CallTimeout == "" {
		cfg.Analyzer.CallTimeout = "90s"
	}
	if cfg.Analyzer.MaxTokens == 0 {
		cfg.Analyzer.MaxTokens = 4096
	}
	if cfg.Assistant.HistoryTurns == 0 {
		cfg.Assistant.HistoryTurns = 10
	}
	if cfg.Assistant.MaxResumeFiles == 0 {
		cfg.Assistant.MaxResumeFiles = 5
	}
	if cfg.Assistant.MaxTokens == 0 {
		cfg.Assistant.MaxTokens = 2000
	}
	if cfg.Assistant.Temperature == 0 {
		cfg.Assistant.Temperature = 0.7
	}
	if cfg.Assistant.TranscriptTTL == "" {
		cfg.Assistant.TranscriptTTL = "24h"
	}
	if cfg.Assistant.CallTimeout == "" {
		cfg.Assistant.CallTimeout = "60s"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.MinIO.ResumeBucket == "" {
		cfg.MinIO.ResumeBucket = "resumes"
	}
	if cfg.MinIO.PresignExpiry == "" {
		cfg.MinIO.PresignExpiry = "15m"
	}
	if cfg.RabbitMQ.ApplicantEventsExchange == "" {
		cfg.RabbitMQ.ApplicantEventsExchange = "ats.applicant.events"
	}
	if cfg.RabbitMQ.ApplicantCreatedKey == "" {
		cfg.RabbitMQ.ApplicantCreatedKey = "applicant.created"
	}
	if cfg.RabbitMQ.RatingQueue == "" {
		cfg.RabbitMQ.RatingQueue = "q.applicant_rating"
	}
	if cfg.RabbitMQ.PrefetchCount == 0 {
		cfg.RabbitMQ.PrefetchCount = 1
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "json"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "ats-agent-go"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 0.1
	}
	if cfg.ModelQPMLimits == nil {
		cfg.ModelQPMLimits = map[string]int{
			"gemini-2.0-flash": 120,
			"gemini-2.5-pro":   60,
		}
	}
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.MySQL.Host = "localhost"
	cfg.MySQL.Port = 3306
	cfg.MySQL.Username = "root"
	cfg.MySQL.Database = "ats"
	cfg.MySQL.MaxIdleConns = 10
	cfg.MySQL.MaxOpenConns = 50
	cfg.MySQL.ConnMaxLifetimeMinutes = 60
	cfg.MySQL.ConnectTimeoutSeconds = 10
	cfg.MySQL.LogLevel = 3
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.PoolSize = 10
	cfg.Redis.MinIdleConns = 2
	cfg.Redis.DialTimeoutSeconds = 5
	cfg.Redis.ReadTimeoutSeconds = 3
	cfg.Redis.WriteTimeoutSeconds = 3
	cfg.MinIO.Endpoint = "localhost:9000"
	cfg.MinIO.AccessKeyID = "minioadmin"
	cfg.MinIO.SecretAccessKey = "minioadmin"
	applyDefaults(cfg)
	return cfg
}

// GetModelForTask returns the task-specific model when configured, falling
// back to the default model.
func (c *Config) GetModelForTask(taskName string) string {
	if c.Gemini.TaskModels != nil {
		if m, ok := c.Gemini.TaskModels[taskName]; ok && m != "" {
			return m
		}
	}
	return c.Gemini.Model
}

// QPMForModel returns the configured requests-per-minute limit for a model,
// or a conservative default when none is configured.
func (c *Config) QPMForModel(model string) int {
	if qpm, ok := c.ModelQPMLimits[model]; ok && qpm > 0 {
		return qpm
	}
	return 60
}

// GetDuration parses a duration string from config, falling back to a
// default on empty or malformed input.
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
