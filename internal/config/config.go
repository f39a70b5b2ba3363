package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "HEARTH"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "hearth.db"
	defaultMirrorPath   = "hearth-device.db"
	defaultLogLevel     = "info"
	defaultIssuer       = "hearth"
	defaultAudience     = "hearth-device"
	defaultSyncInterval = 5 * time.Minute
)

// ServerConfig captures runtime configuration for the household sync server.
type ServerConfig struct {
	HTTPAddress   string
	DatabasePath  string
	SigningSecret string
	JoinCode      string
	TokenIssuer   string
	TokenAudience string
	LogLevel      string
}

// DeviceConfig captures runtime configuration for the device CLI.
type DeviceConfig struct {
	ServerURL    string
	AccountID    string
	DeviceID     string
	JoinCode     string
	MirrorPath   string
	SyncInterval time.Duration
	LogLevel     string
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
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.issuer", defaultIssuer)
	configViper.SetDefault("auth.audience", defaultAudience)
	configViper.SetDefault("device.mirror_path", defaultMirrorPath)
	configViper.SetDefault("device.sync_interval", defaultSyncInterval)
}

// LoadServer parses server configuration from viper.
func LoadServer(configViper *viper.Viper) (ServerConfig, error) {
	cfg := ServerConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		JoinCode:      configViper.GetString("auth.join_code"),
		TokenIssuer:   configViper.GetString("auth.issuer"),
		TokenAudience: configViper.GetString("auth.audience"),
		LogLevel:      configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return ServerConfig{}, err
	}

	return cfg, nil
}

func (c ServerConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.JoinCode) == "" {
		return fmt.Errorf("auth.join_code is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// LoadDevice parses device CLI configuration from viper.
func LoadDevice(configViper *viper.Viper) (DeviceConfig, error) {
	cfg := DeviceConfig{
		ServerURL:    configViper.GetString("device.server_url"),
		AccountID:    configViper.GetString("device.account_id"),
		DeviceID:     configViper.GetString("device.device_id"),
		JoinCode:     configViper.GetString("device.join_code"),
		MirrorPath:   configViper.GetString("device.mirror_path"),
		SyncInterval: configViper.GetDuration("device.sync_interval"),
		LogLevel:     configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return DeviceConfig{}, err
	}

	return cfg, nil
}

func (c DeviceConfig) validate() error {
	if strings.TrimSpace(c.AccountID) == "" {
		return fmt.Errorf("device.account_id is required")
	}
	if strings.TrimSpace(c.DeviceID) == "" {
		return fmt.Errorf("device.device_id is required")
	}
	if strings.TrimSpace(c.MirrorPath) == "" {
		return fmt.Errorf("device.mirror_path is required")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("device.sync_interval must be positive")
	}
	return nil
}
