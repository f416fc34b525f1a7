package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the comment fleet service
type Config struct {
	Database DatabaseConfig
	Telegram TelegramConfig
	Schedule ScheduleConfig
	Worker   WorkerConfig
	OpenAI   OpenAIConfig
	Notifier NotifierConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TelegramConfig holds Telegram MTProto configuration
type TelegramConfig struct {
	APIID      int
	APIHash    string
	SessionDir string
}

// ClockTime is a time-of-day boundary with minute resolution.
type ClockTime struct {
	Hour   int
	Minute int
}

// MinuteOfDay returns the boundary as minutes since midnight.
func (c ClockTime) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

// ScheduleConfig holds the quiet-period, warmup-window and quota settings
type ScheduleConfig struct {
	QuietStart  ClockTime
	QuietEnd    ClockTime
	WarmupStart ClockTime
	WarmupEnd   ClockTime

	ChannelsPerDay    int
	JoinDelay         time.Duration
	DefaultWarmupDays int
	ScanInterval      time.Duration
}

// WorkerConfig holds account worker and concurrency settings
type WorkerConfig struct {
	MaxConcurrent   int
	ConnectTimeout  time.Duration
	StopPoll        time.Duration
	ShutdownTimeout time.Duration
}

// OpenAIConfig holds reply generation configuration
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// NotifierConfig holds the operational log channel configuration
type NotifierConfig struct {
	BotToken     string
	LogChannelID int64
}

// KafkaConfig holds audit event stream configuration
type KafkaConfig struct {
	Brokers     []string
	TopicEvents string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// Result is fx.Out struct for providing config dependencies
type Result struct {
	fx.Out

	Config         *Config
	DatabaseConfig *DatabaseConfig
	TelegramConfig *TelegramConfig
	ScheduleConfig *ScheduleConfig
	WorkerConfig   *WorkerConfig
	OpenAIConfig   *OpenAIConfig
	NotifierConfig *NotifierConfig
	KafkaConfig    *KafkaConfig
	LoggingConfig  *LoggingConfig
	ServiceConfig  *ServiceConfig
}

// Out returns fx-compatible config result
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:         cfg,
		DatabaseConfig: &cfg.Database,
		TelegramConfig: &cfg.Telegram,
		ScheduleConfig: &cfg.Schedule,
		WorkerConfig:   &cfg.Worker,
		OpenAIConfig:   &cfg.OpenAI,
		NotifierConfig: &cfg.Notifier,
		KafkaConfig:    &cfg.Kafka,
		LoggingConfig:  &cfg.Logging,
		ServiceConfig:  &cfg.Service,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	apiID, err := strconv.Atoi(getEnv("TELEGRAM_API_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
	}

	logChannelID, err := strconv.ParseInt(getEnv("LOG_CHANNEL_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_CHANNEL_ID: %w", err)
	}

	quietStart, err := parseClock(getEnv("QUIET_START", "08:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUIET_START: %w", err)
	}
	quietEnd, err := parseClock(getEnv("QUIET_END", "20:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUIET_END: %w", err)
	}
	warmupStart, err := parseClock(getEnv("WARMUP_WINDOW_START", "12:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid WARMUP_WINDOW_START: %w", err)
	}
	warmupEnd, err := parseClock(getEnv("WARMUP_WINDOW_END", "19:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid WARMUP_WINDOW_END: %w", err)
	}

	joinDelayMin, err := strconv.Atoi(getEnv("WARMUP_JOIN_DELAY_MINUTES", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid WARMUP_JOIN_DELAY_MINUTES: %w", err)
	}

	scanInterval, err := time.ParseDuration(getEnv("WARMUP_SCAN_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WARMUP_SCAN_INTERVAL: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "commentbot_user"),
			Password: getEnv("DATABASE_PASSWORD", "commentbot_pass"),
			DBName:   getEnv("DATABASE_NAME", "commentbot_db"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			APIID:      apiID,
			APIHash:    getEnv("TELEGRAM_API_HASH", ""),
			SessionDir: getEnv("TELEGRAM_SESSION_DIR", "./sessions"),
		},
		Schedule: ScheduleConfig{
			QuietStart:        quietStart,
			QuietEnd:          quietEnd,
			WarmupStart:       warmupStart,
			WarmupEnd:         warmupEnd,
			ChannelsPerDay:    getEnvInt("WARMUP_CHANNELS_PER_DAY", 15),
			JoinDelay:         time.Duration(joinDelayMin) * time.Minute,
			DefaultWarmupDays: getEnvInt("WARMUP_DEFAULT_DAYS", 7),
			ScanInterval:      scanInterval,
		},
		Worker: WorkerConfig{
			MaxConcurrent:   getEnvInt("MAX_CONCURRENT_ACCOUNTS", 5),
			ConnectTimeout:  getEnvDuration("CONNECT_TIMEOUT", 2*time.Minute),
			StopPoll:        getEnvDuration("WORKER_STOP_POLL", time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o"),
		},
		Notifier: NotifierConfig{
			BotToken:     getEnv("BOT_TOKEN", ""),
			LogChannelID: logChannelID,
		},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(getEnv("KAFKA_BROKERS", "localhost:9093"), ","),
			TopicEvents: getEnv("KAFKA_TOPIC_EVENTS", "fleet.events"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "comment-fleet"),
			Port: getEnv("SERVICE_PORT", "8085"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("TELEGRAM_API_ID is required")
	}

	if c.Telegram.APIHash == "" {
		return fmt.Errorf("TELEGRAM_API_HASH is required")
	}

	if c.Schedule.ChannelsPerDay <= 0 {
		return fmt.Errorf("WARMUP_CHANNELS_PER_DAY must be positive")
	}

	if c.Worker.MaxConcurrent <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_ACCOUNTS must be positive")
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}

	return nil
}

// GetDSN returns database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// parseClock parses an "HH:MM" time-of-day boundary
func parseClock(value string) (ClockTime, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("expected HH:MM, got %q", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", value)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", value)
	}

	return ClockTime{Hour: hour, Minute: minute}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration gets a duration environment variable with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
