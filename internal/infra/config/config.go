package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config aggregates application configuration loaded from the environment
// and an optional staycal.yaml.
type Config struct {
	Env      string `mapstructure:"APP_ENV" validate:"required"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	HTTPAddr string `mapstructure:"HTTP_ADDR" validate:"required"`

	CalendarEndpoint string        `mapstructure:"CALENDAR_ENDPOINT" validate:"required,startswith=/,endswith=/"`
	FetchBaseURL     string        `mapstructure:"FETCH_BASE_URL" validate:"omitempty,url"`
	FetchTimeout     time.Duration `mapstructure:"FETCH_TIMEOUT" validate:"gt=0"`
	OperatorToken    string        `mapstructure:"OPERATOR_TOKEN"`

	MongoURI string `mapstructure:"MONGO_URI"`
	MongoDB  string `mapstructure:"MONGO_DB" validate:"required"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB" validate:"gte=0"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL" validate:"gt=0"`

	KafkaBrokers       []string        `mapstructure:"-"`
	KafkaTopicPrefix   string          `mapstructure:"KAFKA_TOPIC_PREFIX"`
	KafkaImportTopic   string          `mapstructure:"KAFKA_IMPORT_TOPIC"`
	KafkaGroupID       string          `mapstructure:"KAFKA_GROUP_ID" validate:"required"`
	OutboxPollInterval time.Duration   `mapstructure:"OUTBOX_POLL_INTERVAL" validate:"gt=0"`
	RetryBackoff       []time.Duration `mapstructure:"-"`

	S3Endpoint       string `mapstructure:"S3_ENDPOINT"`
	S3PublicEndpoint string `mapstructure:"S3_PUBLIC_ENDPOINT"`
	S3AccessKey      string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey      string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket         string `mapstructure:"S3_BUCKET" validate:"required"`
	S3UseSSL         bool   `mapstructure:"S3_USE_SSL"`

	FixturesPath      string   `mapstructure:"FIXTURES_PATH"`
	BaselinePath      string   `mapstructure:"BASELINE_PATH"`
	RefreshCron       string   `mapstructure:"REFRESH_CRON"`
	PublishProperties []string `mapstructure:"-"`

	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE" validate:"gte=0"`
	RateLimitBurst     int `mapstructure:"RATE_LIMIT_BURST" validate:"gte=0"`
}

var ErrInvalidConfig = errors.New("config: invalid configuration")

var defaults = map[string]any{
	"APP_ENV":               "dev",
	"LOG_LEVEL":             "info",
	"HTTP_ADDR":             ":8080",
	"CALENDAR_ENDPOINT":     "/hai/availabilityCalendar/",
	"FETCH_BASE_URL":        "",
	"FETCH_TIMEOUT":         "10s",
	"OPERATOR_TOKEN":        "",
	"MONGO_URI":             "",
	"MONGO_DB":              "staycal",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"CACHE_TTL":             "5m",
	"KAFKA_BROKERS":         "",
	"KAFKA_TOPIC_PREFIX":    "",
	"KAFKA_IMPORT_TOPIC":    "",
	"KAFKA_GROUP_ID":        "staycal-feeds",
	"OUTBOX_POLL_INTERVAL":  "500ms",
	"RETRY_BACKOFF":         "1s,5s,30s",
	"S3_ENDPOINT":           "",
	"S3_PUBLIC_ENDPOINT":    "",
	"S3_ACCESS_KEY":         "minioadmin",
	"S3_SECRET_KEY":         "minioadmin",
	"S3_BUCKET":             "staycal-calendars",
	"S3_USE_SSL":            false,
	"FIXTURES_PATH":         "",
	"BASELINE_PATH":         "",
	"REFRESH_CRON":          "",
	"PUBLISH_PROPERTIES":    "",
	"RATE_LIMIT_PER_MINUTE": 600,
	"RATE_LIMIT_BURST":      60,
}

// Load reads the environment and, when present, staycal.yaml from . or ./config.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("staycal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper applies defaults and environment overrides to v and decodes it.
func FromViper(v *viper.Viper) (Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.KafkaBrokers = splitCSV(v.GetString("KAFKA_BROKERS"))
	cfg.PublishProperties = splitCSV(v.GetString("PUBLISH_PROPERTIES"))

	backoff, err := parseBackoff(v.GetString("RETRY_BACKOFF"))
	if err != nil {
		return Config{}, err
	}
	cfg.RetryBackoff = backoff
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func parseBackoff(raw string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range splitCSV(raw) {
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("%w: RETRY_BACKOFF component %q: %v", ErrInvalidConfig, part, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// UseMongo and the other Use* helpers decide which optional backends are wired.
func (c Config) UseMongo() bool { return c.MongoURI != "" }
func (c Config) UseRedis() bool { return c.RedisAddr != "" }
func (c Config) UseKafka() bool { return len(c.KafkaBrokers) > 0 }
func (c Config) UseS3() bool    { return c.S3Endpoint != "" }

// UseFeedConsumer reports whether calendar feeds are imported from Kafka.
func (c Config) UseFeedConsumer() bool { return c.UseKafka() && c.KafkaImportTopic != "" }
