package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort             = "8080"
	DefaultCacheTTL         = 10 * time.Minute
	DefaultCacheMaxEntries  = 20
	DefaultRemoteTimeout    = 10 * time.Second
	DefaultPollInterval     = 2 * time.Minute
	DefaultListingsMaxItems = 200
)

// Config agrupa toda la configuración del servicio.
// Orden de precedencia: defaults < archivo YAML (CONFIG_FILE) < env vars.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Cache       CacheConfig       `yaml:"cache"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	// DSN vacío => repositorio in-memory (modo dev).
	DSN string `yaml:"dsn"`
}

type CacheConfig struct {
	// SQLitePath vacío => store in-memory.
	SQLitePath string        `yaml:"sqlite_path"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type MarketplaceConfig struct {
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key"`
	Timeout          time.Duration `yaml:"timeout"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	// página del remoto y tope del cache que sirve Browse; el índice no tiene tope
	ListingsMaxItems int           `yaml:"listings_max_items"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	App    string `yaml:"app"`
}

// Load lee CONFIG_FILE (si existe), aplica env overrides y completa defaults.
func Load() (Config, error) {
	var cfg Config

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile parsea un YAML de configuración sin aplicar env ni defaults.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Database.DSN, "DB_DSN")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Logging.App, "APP_NAME")
	setString(&c.Cache.SQLitePath, "CACHE_SQLITE_PATH")
	setString(&c.Marketplace.BaseURL, "MARKETPLACE_BASE_URL")
	setString(&c.Marketplace.APIKey, "MARKETPLACE_API_KEY")

	if err := setDuration(&c.Cache.TTL, "CACHE_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.Marketplace.Timeout, "MARKETPLACE_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Marketplace.PollInterval, "MARKETPLACE_POLL_INTERVAL"); err != nil {
		return err
	}
	if err := setInt(&c.Cache.MaxEntries, "CACHE_MAX_ENTRIES"); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Port) == "" {
		c.Server.Port = DefaultPort
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if c.Marketplace.Timeout <= 0 {
		c.Marketplace.Timeout = DefaultRemoteTimeout
	}
	if c.Marketplace.PollInterval <= 0 {
		c.Marketplace.PollInterval = DefaultPollInterval
	}
	if c.Marketplace.ListingsMaxItems <= 0 {
		c.Marketplace.ListingsMaxItems = DefaultListingsMaxItems
	}
	if strings.TrimSpace(c.Logging.App) == "" {
		c.Logging.App = "herd-marketplace"
	}
}

// Addr devuelve la dirección de escucha ":<port>".
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Server.Port, ":")
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, env string) error {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", env, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, env string) error {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", env, err)
	}
	*dst = n
	return nil
}
