// Package config loads settings from defaults, an optional YAML file, a
// .env file and CHOREBOARD_* environment variables, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dukerupert/choreboard/internal/points"
)

const envPrefix = "CHOREBOARD"

type Config struct {
	Port      int    `mapstructure:"port"`
	DBPath    string `mapstructure:"db_path"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Timezone  string `mapstructure:"timezone"`

	Rewards  RewardsConfig  `mapstructure:"rewards"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Push     PushConfig     `mapstructure:"push"`
	CORS     CORSConfig     `mapstructure:"cors"`

	location *time.Location
}

type RewardsConfig struct {
	ApprovalThreshold int `mapstructure:"approval_threshold"`
}

type ScheduleConfig struct {
	ResetTime          string `mapstructure:"reset_time"`
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
}

type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subscriber      string `mapstructure:"subscriber"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "choreboard.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("timezone", "Local")
	v.SetDefault("rewards.approval_threshold", points.DefaultApprovalThreshold)
	v.SetDefault("schedule.reset_time", "00:05")
	v.SetDefault("schedule.audit_retention_days", 90)
	v.SetDefault("push.vapid_public_key", "")
	v.SetDefault("push.vapid_private_key", "")
	v.SetDefault("push.subscriber", "mailto:admin@choreboard.local")
	v.SetDefault("cors.allowed_origins", []string{})
}

// Load reads configuration. configFile may be empty; when it is,
// CHOREBOARD_CONFIG is consulted. A missing .env file is not an error.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = os.Getenv(envPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Env values for list keys arrive as one comma-separated string.
	cfg.CORS.AllowedOrigins = splitList(strings.Join(cfg.CORS.AllowedOrigins, ","))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Rewards.ApprovalThreshold < 0 {
		return fmt.Errorf("rewards.approval_threshold must be >= 0, got %d", c.Rewards.ApprovalThreshold)
	}
	if c.Schedule.AuditRetentionDays < 0 {
		return fmt.Errorf("schedule.audit_retention_days must be >= 0, got %d", c.Schedule.AuditRetentionDays)
	}
	if _, _, err := c.ResetClock(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location is the household time zone. Valid only on a loaded Config.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// ResetClock parses schedule.reset_time.
func (c *Config) ResetClock() (hour, minute uint, err error) {
	t, err := time.Parse("15:04", c.Schedule.ResetTime)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.reset_time must be HH:MM, got %q", c.Schedule.ResetTime)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

func (c *Config) PushEnabled() bool {
	return c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
