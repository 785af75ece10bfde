package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	DoubleBookingAllow     = "allow"
	DoubleBookingExclusive = "exclusive"
)

type Config struct {
	HTTP          HTTPConfig           `yaml:"http"`
	GRPC          GRPCConfig           `yaml:"grpc"`
	Storage       StorageConfig        `yaml:"storage"`
	Database      DatabaseConfig       `yaml:"database"`
	Redis         RedisConfig          `yaml:"redis"`
	Kafka         KafkaConfig          `yaml:"kafka"`
	Booking       BookingConfig        `yaml:"booking"`
	Scheduler     SchedulerConfig      `yaml:"scheduler"`
	Log           LogConfig            `yaml:"log"`
	StoreSettings map[string]DayConfig `yaml:"store_settings"`
}

type HTTPConfig struct {
	Address             string  `yaml:"address"`
	SwaggerFile         string  `yaml:"swagger_file"`
	ActionRatePerSecond float64 `yaml:"action_rate_per_second"`
	ActionBurst         int     `yaml:"action_burst"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type StorageConfig struct {
	Driver  string `yaml:"driver"`
	Migrate bool   `yaml:"migrate"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
	QueueSize          int      `yaml:"queue_size"`
}

type BookingConfig struct {
	Timezone                string `yaml:"timezone"`
	CheckInWindowMinutes    int    `yaml:"check_in_window_minutes"`
	AutoCompleteMinutes     int    `yaml:"auto_complete_minutes"`
	DoubleBooking           string `yaml:"double_booking"`
	SlotLockSeconds         int    `yaml:"slot_lock_seconds"`
	SettingsCacheTTLSeconds int    `yaml:"settings_cache_ttl_seconds"`
}

func (b BookingConfig) CheckInWindow() time.Duration {
	return time.Duration(b.CheckInWindowMinutes) * time.Minute
}

func (b BookingConfig) AutoCompleteAfter() time.Duration {
	return time.Duration(b.AutoCompleteMinutes) * time.Minute
}

func (b BookingConfig) SlotLockTTL() time.Duration {
	return time.Duration(b.SlotLockSeconds) * time.Second
}

func (b BookingConfig) SettingsCacheTTL() time.Duration {
	return time.Duration(b.SettingsCacheTTLSeconds) * time.Second
}

func (b BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(b.Timezone)
}

type SchedulerConfig struct {
	// Embedded runs the sweep inside the API process. With postgres storage
	// the worker binary usually owns it instead.
	Embedded        bool `yaml:"embedded"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	Concurrency     int  `yaml:"concurrency"`
}

func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// RunsEmbeddedScheduler reports whether the API process must sweep. Memory
// storage is process-local, so no other process can do it.
func (c *Config) RunsEmbeddedScheduler() bool {
	return c.Scheduler.Embedded || c.Storage.Driver == StorageMemory
}

type LogConfig struct {
	Debug      bool   `yaml:"debug"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DayConfig is one weekday of the store opening table, keyed by weekday name.
type DayConfig struct {
	Active bool     `yaml:"active"`
	Slots  []string `yaml:"slots"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ActionRatePerSecond == 0 {
		c.HTTP.ActionRatePerSecond = 5
	}
	if c.HTTP.ActionBurst == 0 {
		c.HTTP.ActionBurst = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Kafka.QueueSize == 0 {
		c.Kafka.QueueSize = 256
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Booking.CheckInWindowMinutes == 0 {
		c.Booking.CheckInWindowMinutes = 4 * 60
	}
	if c.Booking.AutoCompleteMinutes == 0 {
		c.Booking.AutoCompleteMinutes = 2 * 60
	}
	if c.Booking.DoubleBooking == "" {
		c.Booking.DoubleBooking = DoubleBookingAllow
	}
	if c.Booking.SlotLockSeconds == 0 {
		c.Booking.SlotLockSeconds = 10
	}
	if c.Booking.SettingsCacheTTLSeconds == 0 {
		c.Booking.SettingsCacheTTLSeconds = 300
	}
	if c.Scheduler.IntervalSeconds == 0 {
		c.Scheduler.IntervalSeconds = 60
	}
	if c.Scheduler.Concurrency == 0 {
		c.Scheduler.Concurrency = 8
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Booking.DoubleBooking {
	case DoubleBookingAllow, DoubleBookingExclusive:
	default:
		return fmt.Errorf("unknown double booking policy %q", c.Booking.DoubleBooking)
	}
	if c.Booking.CheckInWindowMinutes < 0 || c.Booking.AutoCompleteMinutes < 0 {
		return fmt.Errorf("booking windows must be positive")
	}
	if c.Scheduler.IntervalSeconds < 0 || c.Scheduler.Concurrency < 0 {
		return fmt.Errorf("scheduler interval and concurrency must be positive")
	}
	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("booking timezone: %w", err)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.EventsTopic == "") {
		return fmt.Errorf("kafka is enabled but brokers or events_topic are missing")
	}
	return nil
}
