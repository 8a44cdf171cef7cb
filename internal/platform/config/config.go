package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeDev     = "dev"
	ModeRelease = "release"

	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type BootstrapAdmin struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
}

type AuthConfig struct {
	JWTSecret      string         `yaml:"jwt_secret"`
	TokenTTL       time.Duration  `yaml:"token_ttl"`
	BootstrapAdmin BootstrapAdmin `yaml:"bootstrap_admin"`
}

type LendingConfig struct {
	LoanPeriodDays int `yaml:"loan_period_days"`
	MaxOpenLoans   int `yaml:"max_open_loans"`
}

// FeeConfig の金額は文字列で持つ（float の丸め誤差を避けるため decimal でパースする）
type FeeConfig struct {
	ShortTierDays int    `yaml:"short_tier_days"`
	ShortRate     string `yaml:"short_rate"`
	LongRate      string `yaml:"long_rate"`
	Cap           string `yaml:"cap"`
	Timezone      string `yaml:"timezone"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Version        string         `yaml:"version"`
	Mode           string         `yaml:"mode"`
	Server         ServerConfig   `yaml:"server"`
	Storage        string         `yaml:"storage"`
	DB             DatabaseConfig `yaml:"database"`
	Certificate    Certs          `yaml:"certificate"`
	Auth           AuthConfig     `yaml:"auth"`
	Lending        LendingConfig  `yaml:"lending"`
	Fees           FeeConfig      `yaml:"fees"`
	SeedSampleData bool           `yaml:"seed_sample_data"`
	Log            LogConfig      `yaml:"log"`
}

// Load reads the yaml file at path, applies .env / environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	// .env は任意
	_ = godotenv.Load()

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LIBRARY_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("LIBRARY_STORAGE"); v != "" {
		c.Storage = v
	}
	if v := os.Getenv("LIBRARY_DB_HOST"); v != "" {
		c.DB.Host = v
	}
	if v := os.Getenv("LIBRARY_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LIBRARY_DB_PORT: %w", err)
		}
		c.DB.Port = port
	}
	if v := os.Getenv("LIBRARY_DB_USER"); v != "" {
		c.DB.Username = v
	}
	if v := os.Getenv("LIBRARY_DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv("LIBRARY_DB_NAME"); v != "" {
		c.DB.DBName = v
	}
	if v := os.Getenv("LIBRARY_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDev
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8443"
	}
	if c.Storage == "" {
		c.Storage = StorageMySQL
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Lending.LoanPeriodDays == 0 {
		c.Lending.LoanPeriodDays = 14
	}
	if c.Lending.MaxOpenLoans == 0 {
		c.Lending.MaxOpenLoans = 5
	}
	if c.Fees.ShortTierDays == 0 {
		c.Fees.ShortTierDays = 7
	}
	if c.Fees.ShortRate == "" {
		c.Fees.ShortRate = "0.25"
	}
	if c.Fees.LongRate == "" {
		c.Fees.LongRate = "1.00"
	}
	if c.Fees.Cap == "" {
		c.Fees.Cap = "15.00"
	}
	if c.Fees.Timezone == "" {
		c.Fees.Timezone = "UTC"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}
	if c.Storage != StorageMySQL && c.Storage != StorageMemory {
		return fmt.Errorf("storage must be %q or %q, got %q", StorageMySQL, StorageMemory, c.Storage)
	}
	if c.Storage == StorageMySQL && (c.DB.Host == "" || c.DB.DBName == "") {
		return errors.New("database.host and database.dbname are required for mysql storage")
	}
	if c.Mode == ModeRelease && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in release mode")
	}
	if c.Lending.LoanPeriodDays < 0 || c.Lending.MaxOpenLoans < 0 || c.Fees.ShortTierDays < 0 {
		return errors.New("lending and fee day counts must not be negative")
	}
	if _, err := time.LoadLocation(c.Fees.Timezone); err != nil {
		return fmt.Errorf("invalid fees.timezone: %w", err)
	}
	return nil
}
