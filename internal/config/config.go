package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"smartfind/internal/eventbus"
)

// Config represents the application configuration
type Config struct {
	Version       int                 `toml:"version"`
	Server        ServerConfig        `toml:"server"`
	Session       SessionConfig       `toml:"session"`
	Notifications NotificationsConfig `toml:"notifications"`
	Suggestions   SuggestionsConfig   `toml:"suggestions"`
	UISettings    UISettings          `toml:"ui"`
}

// ServerConfig describes how to reach the reservation server
type ServerConfig struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// SessionConfig holds the bearer credential source
type SessionConfig struct {
	Token     string `toml:"token"`
	TokenFile string `toml:"token_file"`
}

// NotificationsConfig controls the polling feed
type NotificationsConfig struct {
	Limit               int `toml:"limit"`
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
}

// SuggestionsConfig controls the search autocomplete
type SuggestionsConfig struct {
	DebounceMillis  int `toml:"debounce_ms"`
	Limit           int `toml:"limit"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"` // 0 disables the cache
}

// UISettings represents UI-related configuration
type UISettings struct {
	LogFile   string `toml:"log_file"`
	AltScreen bool   `toml:"alt_screen"`
}

// Timeout is the per-request deadline
func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval is the background feed cadence
func (c NotificationsConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Debounce is the quiet period after the last keystroke before a suggestion fetch
func (c SuggestionsConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// CacheTTL is how long a resolved suggestion list is reused
func (c SuggestionsConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// envOverrides are read from SMARTFIND_* variables and win over the file
type envOverrides struct {
	BaseURL      string  `envconfig:"BASE_URL"`
	Token        string  `envconfig:"TOKEN"`
	TokenFile    string  `envconfig:"TOKEN_FILE"`
	PollSeconds  int     `envconfig:"POLL_SECONDS"`
	FeedLimit    int     `envconfig:"FEED_LIMIT"`
	DebounceMS   int     `envconfig:"DEBOUNCE_MS"`
	LogFile      string  `envconfig:"LOG_FILE"`
	RequestsPerS float64 `envconfig:"REQUESTS_PER_SECOND"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a new config service
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	return &configService{
		filePath: filepath.Join(configDir, "smartfind", "config.toml"),
	}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(bus eventbus.EventBus) ConfigService {
	cs := NewConfigService().(*configService)
	cs.bus = bus
	return cs
}

// DefaultPath returns where Load reads from
func DefaultPath() string {
	return NewConfigService().(*configService).filePath
}

// Load loads the configuration from the default file, applying environment overrides
func (cs *configService) Load() (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		loaded, err := cs.LoadFromPath(cs.filePath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{
			Path:    cs.filePath,
			BaseURL: cfg.Server.BaseURL,
		})
	}

	return cfg, nil
}

// Save saves the configuration to the default file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}

	return nil
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so a partial file keeps sane values
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may carry a bearer token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays SMARTFIND_* environment variables onto cfg
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("smartfind", &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.BaseURL != "" {
		cfg.Server.BaseURL = env.BaseURL
	}
	if env.Token != "" {
		cfg.Session.Token = env.Token
	}
	if env.TokenFile != "" {
		cfg.Session.TokenFile = env.TokenFile
	}
	if env.PollSeconds > 0 {
		cfg.Notifications.PollIntervalSeconds = env.PollSeconds
	}
	if env.FeedLimit > 0 {
		cfg.Notifications.Limit = env.FeedLimit
	}
	if env.DebounceMS > 0 {
		cfg.Suggestions.DebounceMillis = env.DebounceMS
	}
	if env.LogFile != "" {
		cfg.UISettings.LogFile = env.LogFile
	}
	if env.RequestsPerS > 0 {
		cfg.Server.RequestsPerSecond = env.RequestsPerS
	}

	applyDefaults(cfg)
	return nil
}

// applyDefaults repairs zero or out-of-range values
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = def.Version
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = def.Server.BaseURL
	}
	if cfg.Server.TimeoutSeconds <= 0 {
		cfg.Server.TimeoutSeconds = def.Server.TimeoutSeconds
	}
	if cfg.Server.RequestsPerSecond <= 0 {
		cfg.Server.RequestsPerSecond = def.Server.RequestsPerSecond
	}
	if cfg.Server.Burst <= 0 {
		cfg.Server.Burst = def.Server.Burst
	}
	// The server caps the feed window at 100
	if cfg.Notifications.Limit <= 0 || cfg.Notifications.Limit > 100 {
		log.Printf("notifications.limit %d out of range; using %d", cfg.Notifications.Limit, def.Notifications.Limit)
		cfg.Notifications.Limit = def.Notifications.Limit
	}
	if cfg.Notifications.PollIntervalSeconds <= 0 {
		cfg.Notifications.PollIntervalSeconds = def.Notifications.PollIntervalSeconds
	}
	if cfg.Suggestions.DebounceMillis <= 0 {
		cfg.Suggestions.DebounceMillis = def.Suggestions.DebounceMillis
	}
	// The server caps suggestions at 20
	if cfg.Suggestions.Limit <= 0 || cfg.Suggestions.Limit > 20 {
		cfg.Suggestions.Limit = def.Suggestions.Limit
	}
	if cfg.Suggestions.CacheTTLSeconds < 0 {
		cfg.Suggestions.CacheTTLSeconds = def.Suggestions.CacheTTLSeconds
	}
	if cfg.UISettings.LogFile == "" {
		cfg.UISettings.LogFile = def.UISettings.LogFile
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			BaseURL:           "http://127.0.0.1:8017",
			TimeoutSeconds:    10,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Notifications: NotificationsConfig{
			Limit:               12,
			PollIntervalSeconds: 30,
		},
		Suggestions: SuggestionsConfig{
			DebounceMillis:  220,
			Limit:           8,
			CacheTTLSeconds: 30,
		},
		UISettings: UISettings{
			LogFile:   "smartfind.log",
			AltScreen: true,
		},
	}
}
