package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config конфигурация сервиса, загружается из config.toml
type Config struct {
	Server     ServerConfig      `toml:"server"`
	Database   DatabaseConfig    `toml:"database"`
	Logs       LogsConfig        `toml:"logs"`
	Metrics    MetricsConfig     `toml:"metrics"`
	Cache      CacheConfig       `toml:"cache"`
	Scheduling SchedulingConfig  `toml:"scheduling"`
	Gateway    IntegrationConfig `toml:"payment_gateway"`
	Notifier   IntegrationConfig `toml:"notifier"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN возвращает строку подключения для lib/pq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки Prometheus-метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Path        string `toml:"path"`
}

// CacheConfig настройки Redis-кэша расписаний
// Кэш используется ТОЛЬКО на чтение расписаний/персонала; путь создания
// бронирования всегда ходит в БД напрямую
type CacheConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// SchedulingConfig политики планирования
// Значения по умолчанию зашиты в Load, переопределяются в config.toml
type SchedulingConfig struct {
	BufferMinutes            int `toml:"buffer_minutes"`             // пауза до/после бронирования
	MinLeadTimeMinutes       int `toml:"min_lead_time_minutes"`      // минимальное время до начала
	OvertimeToleranceMinutes int `toml:"overtime_tolerance_minutes"` // допуск переработки
	RescheduleHorizonDays    int `toml:"reschedule_horizon_days"`    // горизонт поиска при переносе
	SlotStepMinutes          int `toml:"slot_step_minutes"`          // шаг дискретизации окон
	DefaultDurationMinutes   int `toml:"default_duration_minutes"`   // fallback длительности (degraded path)
}

// IntegrationConfig настройки внешнего HTTP-сервиса
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
	APIKey  string `toml:"api_key"`
}

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			ServiceName: "schedule-service",
			Path:        "/metrics",
		},
		Cache: CacheConfig{
			TTLSeconds: 120,
		},
		Scheduling: SchedulingConfig{
			BufferMinutes:            5,
			MinLeadTimeMinutes:       60,
			OvertimeToleranceMinutes: 5,
			RescheduleHorizonDays:    14,
			SlotStepMinutes:          15,
			DefaultDurationMinutes:   30,
		},
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.dbname is required")
	}
	if c.Scheduling.BufferMinutes < 0 {
		return fmt.Errorf("config: scheduling.buffer_minutes must be non-negative")
	}
	if c.Scheduling.RescheduleHorizonDays <= 0 {
		return fmt.Errorf("config: scheduling.reschedule_horizon_days must be positive")
	}
	if c.Scheduling.SlotStepMinutes <= 0 {
		return fmt.Errorf("config: scheduling.slot_step_minutes must be positive")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("config: cache.addr is required when cache is enabled")
	}
	return nil
}
