package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "COOKBOOK"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultPrimaryTable      = "recipes"
	defaultBackupTable       = "recipes_backup"
	defaultSessionDBPath     = "cookbook_session.db"
	defaultLogLevel          = "info"
	defaultAdminUsername     = "admin"
	defaultBackupBatchSize   = 5
	defaultBackupBatchPause  = 200 * time.Millisecond
	defaultSessionTTLMinutes = 720
)

// AppConfig captures runtime configuration for the cookbook API server.
type AppConfig struct {
	HTTPAddress     string
	PrimaryURL      string
	PrimaryKey      string
	PrimaryTable    string
	BackupURL       string
	BackupKey       string
	BackupTable     string
	AdminUsername   string
	AdminPassword   string
	SigningSecret   string
	SessionDBPath   string
	SessionTTL      time.Duration
	BackupBatchSize int
	BackupPause     time.Duration
	LogLevel        string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("primary.table", defaultPrimaryTable)
	configViper.SetDefault("backup.table", defaultBackupTable)
	configViper.SetDefault("admin.username", defaultAdminUsername)
	configViper.SetDefault("session.db_path", defaultSessionDBPath)
	configViper.SetDefault("session.ttl_minutes", defaultSessionTTLMinutes)
	configViper.SetDefault("backup.batch_size", defaultBackupBatchSize)
	configViper.SetDefault("backup.batch_pause_ms", int(defaultBackupBatchPause/time.Millisecond))
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		PrimaryURL:      configViper.GetString("primary.url"),
		PrimaryKey:      configViper.GetString("primary.api_key"),
		PrimaryTable:    configViper.GetString("primary.table"),
		BackupURL:       configViper.GetString("backup.url"),
		BackupKey:       configViper.GetString("backup.api_key"),
		BackupTable:     configViper.GetString("backup.table"),
		AdminUsername:   configViper.GetString("admin.username"),
		AdminPassword:   configViper.GetString("admin.password"),
		SigningSecret:   configViper.GetString("auth.signing_secret"),
		SessionDBPath:   configViper.GetString("session.db_path"),
		SessionTTL:      time.Duration(configViper.GetInt("session.ttl_minutes")) * time.Minute,
		BackupBatchSize: configViper.GetInt("backup.batch_size"),
		BackupPause:     time.Duration(configViper.GetInt("backup.batch_pause_ms")) * time.Millisecond,
		LogLevel:        configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.PrimaryURL) == "" {
		return fmt.Errorf("primary.url is required")
	}
	if strings.TrimSpace(c.PrimaryKey) == "" {
		return fmt.Errorf("primary.api_key is required")
	}
	if strings.TrimSpace(c.BackupURL) == "" {
		return fmt.Errorf("backup.url is required")
	}
	if strings.TrimSpace(c.BackupKey) == "" {
		return fmt.Errorf("backup.api_key is required")
	}
	if strings.TrimSpace(c.AdminUsername) == "" {
		return fmt.Errorf("admin.username is required")
	}
	if strings.TrimSpace(c.AdminPassword) == "" {
		return fmt.Errorf("admin.password is required")
	}
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.SessionDBPath) == "" {
		return fmt.Errorf("session.db_path is required")
	}
	if c.BackupBatchSize <= 0 {
		return fmt.Errorf("backup.batch_size must be positive")
	}
	return nil
}
