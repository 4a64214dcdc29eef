package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingConfig is returned by Validate when a required setting is absent.
var ErrMissingConfig = errors.New("missing required config")

type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Log             LogConfig             `mapstructure:"log"`
	Sentry          SentryConfig          `mapstructure:"sentry"`
	Tracing         TracingConfig         `mapstructure:"tracing"`
	Fanout          FanoutConfig          `mapstructure:"fanout"`
	StaleThread     StaleThreadConfig     `mapstructure:"stale_thread"`
	ResumeNudge     ResumeNudgeConfig     `mapstructure:"resume_nudge"`
	MeetingReminder MeetingReminderConfig `mapstructure:"meeting_reminder"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | sqlite
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	Debug        bool   `mapstructure:"debug"`
}

// RedisConfig configures the directory cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

type FanoutConfig struct {
	BatchSize              int           `mapstructure:"batch_size"`
	DryRun                 bool          `mapstructure:"dry_run"`
	MaxEventAge            time.Duration `mapstructure:"max_event_age"`
	MaxRetries             int           `mapstructure:"max_retries"`
	ProcessingStaleAfter   time.Duration `mapstructure:"processing_stale_after"`
	ProcessorID            string        `mapstructure:"processor_id"`
	AccessCheckConcurrency int           `mapstructure:"access_check_concurrency"`
	AccessCheckRPS         float64       `mapstructure:"access_check_rps"`
	PollInterval           time.Duration `mapstructure:"poll_interval"`
}

type StaleThreadConfig struct {
	Threshold time.Duration `mapstructure:"threshold"`
	DryRun    bool          `mapstructure:"dry_run"`
}

// ResumeNudgeConfig holds the escalation ladder; tier N fires once Tiers[N-1]
// has elapsed since the last resume edit.
type ResumeNudgeConfig struct {
	Tiers []time.Duration `mapstructure:"tiers"`
}

type MeetingReminderConfig struct {
	MinutesBefore int  `mapstructure:"minutes_before"`
	DryRun        bool `mapstructure:"dry_run"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "notify-fanout")

	v.SetDefault("fanout.batch_size", 500)
	v.SetDefault("fanout.dry_run", false)
	v.SetDefault("fanout.max_event_age", 24*time.Hour)
	v.SetDefault("fanout.max_retries", 5)
	v.SetDefault("fanout.processing_stale_after", 10*time.Minute)
	v.SetDefault("fanout.processor_id", "")
	v.SetDefault("fanout.access_check_concurrency", 8)
	v.SetDefault("fanout.access_check_rps", 0)
	v.SetDefault("fanout.poll_interval", time.Minute)

	v.SetDefault("stale_thread.threshold", 3*time.Hour)
	v.SetDefault("stale_thread.dry_run", false)

	v.SetDefault("resume_nudge.tiers", []string{"24h", "72h", "120h", "168h"})

	v.SetDefault("meeting_reminder.minutes_before", 30)
	v.SetDefault("meeting_reminder.dry_run", false)
}

// Load reads config.yaml (if present) and NOTIFY_* environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("NOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would make any job unable to run.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn", ErrMissingConfig)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if len(c.ResumeNudge.Tiers) == 0 {
		return fmt.Errorf("%w: resume_nudge.tiers", ErrMissingConfig)
	}
	for i := 1; i < len(c.ResumeNudge.Tiers); i++ {
		if c.ResumeNudge.Tiers[i] <= c.ResumeNudge.Tiers[i-1] {
			return fmt.Errorf("resume_nudge.tiers must be strictly increasing")
		}
	}
	if c.StaleThread.Threshold <= 0 {
		return fmt.Errorf("stale_thread.threshold must be positive")
	}
	return nil
}
