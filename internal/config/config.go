// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Game      GameConfig      `mapstructure:"game"`
	Daily     DailyConfig     `mapstructure:"daily"`
	Retention RetentionConfig `mapstructure:"retention"`
	Words     WordsConfig     `mapstructure:"words"`
}

// BotConfig holds chat-platform bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// GameConfig holds game rule configuration.
type GameConfig struct {
	// Cooldown is the minimum wait between one player's consecutive guesses.
	Cooldown time.Duration `mapstructure:"cooldown"`
	// AnnounceDelay is the pause between a winning guess and the game-over
	// announcement.
	AnnounceDelay time.Duration `mapstructure:"announce_delay"`
}

// DailyConfig holds the auto-started daily game configuration.
type DailyConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule is a cron expression in the configured timezone.
	Schedule string  `mapstructure:"schedule"`
	Timezone string  `mapstructure:"timezone"`
	Chats    []int64 `mapstructure:"chats"`
}

// RetentionConfig holds durable-data retention windows for the periodic sweep.
type RetentionConfig struct {
	Games        time.Duration `mapstructure:"games"`
	PendingHosts time.Duration `mapstructure:"pending_hosts"`
}

// WordsConfig holds word list configuration.
type WordsConfig struct {
	// Path points at a JSON array of words; empty uses the built-in list.
	Path string `mapstructure:"path"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the given directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables override file values, e.g. BOT_TOKEN,
	// DATABASE_HOST, GAME_COOLDOWN.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "grouple")
	v.SetDefault("database.name", "grouple")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("game.cooldown", "2h")
	v.SetDefault("game.announce_delay", "2s")

	v.SetDefault("daily.enabled", true)
	v.SetDefault("daily.schedule", "0 9 * * *")
	v.SetDefault("daily.timezone", "America/Chicago")

	v.SetDefault("retention.games", "168h")
	v.SetDefault("retention.pending_hosts", "24h")
}

// IsChatAllowed checks if a chat ID is in the whitelist.
// An empty whitelist allows all chats.
func (c *Config) IsChatAllowed(chatID int64) bool {
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
