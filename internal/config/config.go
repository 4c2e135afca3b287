// config реализует конфигурацию articles-service: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	SearchStore = "store"
	SearchBleve = "bleve"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load (флаг --config);
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	DB       DBConfig       `yaml:"db"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Search   SearchConfig   `yaml:"search"`
	Limits   LimitsConfig   `yaml:"limits"`
	Trending TrendingConfig `yaml:"trending"`
	Slug     SlugConfig     `yaml:"slug"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// TimeoutConfig — сервисные таймауты (общий дедлайн обработки запроса).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"5s"`
}

// HTTPConfig — сетевые настройки REST API.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50085"`
}

// MetricsConfig — отдельный listener для health/metrics.
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"50095"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (m MetricsConfig) Addr() string {
	return net.JoinHostPort(m.Host, m.Port)
}

// DBConfig — выбор хранилища и настройки подключения к MongoDB.
// Driver memory не требует URL (данные живут до перезапуска процесса).
type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"mongo"`
	URL    string `yaml:"url" env:"DATABASE_URL"`
}

// RedisConfig — дедупликация просмотров. Пустой URL отключает её:
// тогда каждый просмотр засчитывается.
type RedisConfig struct {
	URL     string        `yaml:"url" env:"REDIS_URL"`
	ViewTTL time.Duration `yaml:"view_ttl" env:"VIEW_TTL" env-default:"30m"`
}

// AuthConfig — параметры проверки bearer-токенов, выпущенных auth-service.
type AuthConfig struct {
	JWTSecret string   `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer    string   `yaml:"issuer"   env:"ISSUER" env-default:"auth-service"`
	Audience  []string `yaml:"audience" env:"AUDIENCE" env-default:"api-gateway"`
}

// SearchConfig — бэкенд полнотекстового поиска.
// store — поиск средствами хранилища; bleve — отдельный индекс (IndexPath пуст — индекс в памяти).
type SearchConfig struct {
	Backend   string `yaml:"backend" env:"SEARCH_BACKEND" env-default:"store"`
	IndexPath string `yaml:"index_path" env:"SEARCH_INDEX_PATH"`
}

// LimitsConfig — лимиты на выдачу.
type LimitsConfig struct {
	// Пагинация: limit=0 -> берём Default; верхняя граница — Max.
	Default int `yaml:"default" env:"DEFAULT_LIMIT" env-default:"20"`
	Max     int `yaml:"max"     env:"MAX_LIMIT"     env-default:"100"`
}

// TrendingConfig — периодический пересчёт trending_score. 0 отключает фоновый проход.
type TrendingConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" env:"TRENDING_SWEEP_INTERVAL" env-default:"15m"`
}

// SlugConfig — сколько кандидатов slug (base, base-2, ...) перебирать до отказа.
type SlugConfig struct {
	MaxAttempts int `yaml:"max_attempts" env:"SLUG_MAX_ATTEMPTS" env-default:"20"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	// 1) Явный путь.
	if path != "" {
		return readFile(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return readFile(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return readFile("local.yaml")
	}

	// 4) Только ENV.
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

// readFile — чтение файла + overlay ENV + validate.
func readFile(p string) (*Config, error) {
	if _, err := os.Stat(p); err != nil {
		return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(p, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to overlay env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	var errs []error

	switch c.DB.Driver {
	case DriverMongo:
		if c.DB.URL == "" {
			errs = append(errs, fmt.Errorf("db.url is required for driver %q", DriverMongo))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("db.driver must be %q or %q", DriverMongo, DriverMemory))
	}

	switch c.Search.Backend {
	case SearchStore, SearchBleve:
	default:
		errs = append(errs, fmt.Errorf("search.backend must be %q or %q", SearchStore, SearchBleve))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("auth.jwt_secret is required"))
	}

	if c.Redis.URL != "" && c.Redis.ViewTTL < time.Second {
		errs = append(errs, fmt.Errorf("redis.view_ttl must be at least 1s"))
	}

	if c.Limits.Default <= 0 {
		errs = append(errs, fmt.Errorf("limits.default must be > 0"))
	}

	if c.Limits.Max <= 0 {
		errs = append(errs, fmt.Errorf("limits.max must be > 0"))
	}

	if c.Limits.Default > c.Limits.Max {
		errs = append(errs, fmt.Errorf("limits.default must be <= limits.max"))
	}

	if c.Trending.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("trending.sweep_interval must be >= 0"))
	}

	if c.Slug.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("slug.max_attempts must be >= 1"))
	}

	if c.Timeouts.Service <= 0 {
		errs = append(errs, fmt.Errorf("timeouts.service must be > 0"))
	}

	return errors.Join(errs...)
}
