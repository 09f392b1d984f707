package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	viper *viper.Viper
}

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "INTERBOT_CONFIG_FILE"

// secretKeys are bound to environment variables explicitly so they can be
// supplied without ever being written to the config file.
var secretKeys = []string{
	"discord.token",
	"discord.application_id",
	"discord.dev_guild_id",
	"redis.addr",
	"redis.password",
	"status.jwt_secret",
	"telemetry.endpoint",
	"logger.level",
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".interbot"))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// INTERBOT_DISCORD_TOKEN -> discord.token
	v.SetEnvPrefix("INTERBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range secretKeys {
		_ = v.BindEnv(key)
	}

	return &Loader{viper: v}
}

// Load loads the configuration from file and environment variables.
// If configPath is empty, INTERBOT_CONFIG_FILE and then the default paths are
// searched. A missing file is created from defaults.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(configPath) == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	explicitPath := strings.TrimSpace(configPath) != ""
	resolvedPath, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	if explicitPath {
		l.viper.SetConfigFile(resolvedPath)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			if err := SaveToFile(cfg, resolvedPath); err != nil {
				return nil, fmt.Errorf("creating config file: %w", err)
			}
			// Environment still applies on first run.
			if err := l.viper.Unmarshal(cfg); err != nil {
				return nil, fmt.Errorf("unmarshaling config: %w", err)
			}
			cfg.normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := l.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.normalize()

	return cfg, nil
}

// normalize fills derived values after unmarshaling.
func (c *Config) normalize() {
	c.Logger.OutputPath = expandPath(c.Logger.OutputPath)
	c.State.FilePath = expandPath(c.State.FilePath)
	c.Discord.Token = strings.TrimSpace(c.Discord.Token)
	if c.Dispatcher.Namespace == "" {
		c.Dispatcher.Namespace = DefaultNamespace
	}
}

// LoadFromFile loads configuration from a specific file.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	return l.Load(path)
}

// Save saves the configuration to a file.
func (l *Loader) Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	format := "json"
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	}

	v := viper.New()
	v.SetConfigType(format)

	v.Set("discord", cfg.Discord)
	v.Set("dispatcher", cfg.Dispatcher)
	v.Set("logger", cfg.Logger)
	v.Set("redis", cfg.Redis)
	v.Set("bus", cfg.Bus)
	v.Set("state", cfg.State)
	v.Set("reporter", cfg.Reporter)
	v.Set("i18n", cfg.I18n)
	v.Set("telemetry", cfg.Telemetry)
	v.Set("status", cfg.Status)
	v.Set("scheduler", cfg.Scheduler)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SaveToFile is a convenience function to save config without creating a Loader.
func SaveToFile(cfg *Config, path string) error {
	return NewLoader().Save(path, cfg)
}

// GetConfigHome returns the default config directory.
func GetConfigHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".interbot"), nil
}

// GetConfigPath returns the path of the loaded config file.
func (l *Loader) GetConfigPath() string {
	return l.viper.ConfigFileUsed()
}

// InitDefaultConfig creates a default config file if it doesn't exist.
// Returns the path to the config file and whether it was newly created.
func InitDefaultConfig() (configPath string, created bool, err error) {
	configPath, err = resolveConfigPath(strings.TrimSpace(os.Getenv(ConfigPathEnv)))
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath, false, nil
	}
	if err := SaveToFile(DefaultConfig(), configPath); err != nil {
		return "", false, fmt.Errorf("writing default config: %w", err)
	}
	return configPath, true, nil
}

func resolveConfigPath(configPath string) (string, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		home, err := GetConfigHome()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, "config.json")
	}
	abs, err := filepath.Abs(expandPath(path))
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}
