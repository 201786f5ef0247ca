package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is loaded from the environment (and an optional .env file).
type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN"`
	ClientID              string   `env:"CLIENT_ID"`
	OwnerID               string   `env:"OWNER_ID"`
	DeveloperIDs          []string `env:"DEVELOPER_IDS" envSeparator:","`
	TestGuildID           string   `env:"TEST_SERVER_GUILD_ID"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	SupportServerInvite   string   `env:"SUPPORT_SERVER_INVITE"`

	StoragePath   string        `env:"STORAGE_PATH" envDefault:"data/datastore.json"`
	AuditDBPath   string        `env:"AUDIT_DB_PATH" envDefault:"data/audit.db"`
	AuditRetain   time.Duration `env:"AUDIT_RETENTION" envDefault:"720h"`
	CommandCache  string        `env:"COMMAND_CACHE_DIR" envDefault:"data/commands"`
	OverridesPath string        `env:"COMMAND_OVERRIDES_PATH" envDefault:"commands.yaml"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	MetricsAddr string `env:"METRICS_ADDR"`

	RefreshCommands   bool   `env:"REFRESH_SLASH_COMMAND_API_DATA" envDefault:"true"`
	ThrottleBypass    string `env:"THROTTLE_BYPASS_TIER" envDefault:"Developer"`
	Debug             bool   `env:"DEBUG_ENABLED"`
	DebugInteractions bool   `env:"DEBUG_INTERACTIONS"`
	DebugThrottling   bool   `env:"DEBUG_COMMAND_THROTTLING"`
}

// Load reads .env if present and parses the environment without validating
// bot credentials. Tools that never connect to Discord use it directly.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, falling back to system environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// New loads the configuration and checks everything the bot needs to run.
func New() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is not set")
	}
	if cfg.OwnerID == "" {
		log.Warn().Msg("OWNER_ID is not set, the Bot Owner tier will never match")
	}
	return cfg, nil
}
