package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/eleven-am/larder/internal/auth"
	"github.com/eleven-am/larder/internal/migrator"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the larder.yaml configuration structure. It is built
// once at startup and handed to the server by value.
type Config struct {
	Database struct {
		Driver         string `yaml:"driver"`
		URL            string `yaml:"url"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"database"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Auth struct {
		SecretKey string        `yaml:"secret_key"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	Migrations struct {
		Table     string `yaml:"table"`
		AutoApply bool   `yaml:"auto_apply"`
	} `yaml:"migrations"`
}

var configLocations = []string{"larder.yaml", "larder.yml", ".larder.yaml", ".larder.yml"}

// LoadConfig reads the config file, then .env, then the environment.
// Later sources win. A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	var config Config

	if path == "" {
		path = GetConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	config.applyEnv()
	config.applyDefaults()

	return &config, nil
}

// GetConfigPath returns $LARDER_CONFIG or the first default location that
// exists
func GetConfigPath() string {
	if path := os.Getenv("LARDER_CONFIG"); path != "" {
		return path
	}

	for _, loc := range configLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.Auth.SecretKey = v
	}
	if v := os.Getenv("LARDER_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 25
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = auth.DefaultTTL
	}
	if c.Migrations.Table == "" {
		c.Migrations.Table = migrator.DefaultTable
	}
}

// Validate checks everything serve needs against a database
func (c *Config) Validate() error {
	return errors.Join(c.validateDatabase(), c.validateAuth())
}

func (c *Config) validateDatabase() error {
	if c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database connection required: use --url, DATABASE_URL, or database.url in larder.yaml")
	}
	if c.Database.MaxConnections < 0 {
		return errors.New("database.max_connections must not be negative")
	}
	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.SecretKey == "" {
		return errors.New("secret key required: set SECRET_KEY or auth.secret_key in larder.yaml")
	}
	if c.Auth.TokenTTL < 0 {
		return errors.New("auth.token_ttl must not be negative")
	}
	return nil
}
