package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config application configuration
type Config struct {
	Profile  string         `mapstructure:"-"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Email    EmailConfig    `mapstructure:"email"`
	Report   ReportConfig   `mapstructure:"report"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig selects the storage backend.
// Driver is one of sqlite, mysql, postgres. Path is only used by sqlite.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	SSLMode  string `mapstructure:"sslmode"`
}

// JWTConfig JWT settings
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig SMTP settings for report mails
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// ReportConfig reporting defaults
type ReportConfig struct {
	MonthWindow int `mapstructure:"month_window"`
}

const (
	ProfileDevelopment = "development"
	ProfileProduction  = "production"
)

var (
	// GlobalConfig the loaded configuration
	GlobalConfig *Config

	// ErrUnknownProfile is returned for profiles other than development/production
	ErrUnknownProfile = errors.New("unknown configuration profile")
)

// NormalizeProfile maps the CLI shorthands dev/prod onto profile names.
// An empty string selects development.
func NormalizeProfile(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dev", ProfileDevelopment:
		return ProfileDevelopment, nil
	case "prod", ProfileProduction:
		return ProfileProduction, nil
	default:
		return "", fmt.Errorf("%w: %q (must be dev or prod)", ErrUnknownProfile, name)
	}
}

// LoadConfig loads a profile.
// Precedence: environment > external config file > embedded profile.
// configPath is optional.
func LoadConfig(profile, configPath string) (*Config, error) {
	profile, err := NormalizeProfile(profile)
	if err != nil {
		return nil, err
	}

	raw, err := ProfileYAML(profile)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")

	// 1. embedded profile
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("read embedded profile %s: %w", profile, err)
	}
	log.Printf("loaded embedded profile: %s", profile)

	// 2. optional external file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("warning: cannot read config file %s: %v", configPath, err)
		} else {
			log.Printf("merged config file: %s", configPath)
		}
	} else {
		external := viper.New()
		external.SetConfigName(profile)
		external.SetConfigType("yaml")
		external.AddConfigPath("./config")
		external.AddConfigPath("/etc/expense-manager")
		external.AddConfigPath("$HOME/.expense-manager")

		if err := external.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(external.AllSettings()); err != nil {
				log.Printf("warning: merge external config failed: %v", err)
			} else {
				log.Printf("merged config file: %s", external.ConfigFileUsed())
			}
		}
	}

	// 3. .env file, then environment variables
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}
	v.SetEnvPrefix("EXPENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.path", "EXPENSE_DATABASE_PATH", "SQLITE_DB_PATH"); err != nil {
		return nil, fmt.Errorf("bind database path env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Profile = profile

	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	if cfg.Report.MonthWindow <= 0 {
		cfg.Report.MonthWindow = 6
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Server.Mode == "release" && cfg.JWT.Secret == "" {
		return nil, errors.New("jwt.secret must be set in release mode (EXPENSE_JWT_SECRET)")
	}

	GlobalConfig = &cfg

	return &cfg, nil
}

// PrintConfig logs the active configuration without secrets
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	log.Printf("active configuration (%s):", GlobalConfig.Profile)
	log.Printf("  server:   %s (mode: %s)", GlobalConfig.Server.Port, GlobalConfig.Server.Mode)
	if GlobalConfig.Database.Driver == "sqlite" {
		log.Printf("  database: sqlite %s", GlobalConfig.Database.Path)
	} else {
		log.Printf("  database: %s %s@%s:%s/%s",
			GlobalConfig.Database.Driver,
			GlobalConfig.Database.Username,
			GlobalConfig.Database.Host,
			GlobalConfig.Database.Port,
			GlobalConfig.Database.DBName)
	}
	log.Printf("  email:    %v", GlobalConfig.Email.Enabled)
}

// SafeErrorMessage hides internal error details from clients in release mode
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}
