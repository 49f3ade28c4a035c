package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the coreview configuration.
type Config struct {
	Provider  string        `json:"provider" yaml:"provider" validate:"required"`
	Model     string        `json:"model,omitempty" yaml:"model,omitempty"`
	RulesFile string        `json:"rulesFile,omitempty" yaml:"rulesFile,omitempty"`
	Server    ServerConfig  `json:"server" yaml:"server"`
	Client    ClientConfig  `json:"client" yaml:"client"`
	Cache     CacheConfig   `json:"cache" yaml:"cache"`
	Privacy   PrivacyConfig `json:"privacy" yaml:"privacy"`
	Log       LogConfig     `json:"log" yaml:"log"`
}

// ServerConfig controls the relay and review server.
type ServerConfig struct {
	Addr                string   `json:"addr" yaml:"addr" validate:"required"`
	AllowedOrigins      []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
	ReviewRatePerMinute int      `json:"reviewRatePerMinute" yaml:"reviewRatePerMinute" validate:"gte=0"`
	ReviewBurst         int      `json:"reviewBurst" yaml:"reviewBurst" validate:"gte=0"`
	MaxMessageBytes     int64    `json:"maxMessageBytes" yaml:"maxMessageBytes" validate:"gt=0"`
	PingIntervalSeconds int      `json:"pingIntervalSeconds" yaml:"pingIntervalSeconds" validate:"gt=0"`
	HistoryTurns        int      `json:"historyTurns" yaml:"historyTurns" validate:"gte=0,lte=10"`
}

// ClientConfig controls the editor and headless clients.
type ClientConfig struct {
	ServerURL    string `json:"serverUrl" yaml:"serverUrl" validate:"required,url"`
	ShareBaseURL string `json:"shareBaseUrl,omitempty" yaml:"shareBaseUrl,omitempty"`
	HistoryTurns int    `json:"historyTurns" yaml:"historyTurns" validate:"gte=0,lte=10"`
	Session      string `json:"session,omitempty" yaml:"session,omitempty"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds" validate:"gte=0"`
}

// PrivacyConfig controls redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool `json:"redactSecrets" yaml:"redactSecrets"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=auto json console"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider: "gemini",
		Model:    "gemini-2.5-flash-lite",
		Server: ServerConfig{
			Addr:                ":8080",
			ReviewRatePerMinute: 30,
			ReviewBurst:         5,
			MaxMessageBytes:     1 << 20,
			PingIntervalSeconds: 30,
			HistoryTurns:        3,
		},
		Client: ClientConfig{
			ServerURL:    "http://localhost:8080",
			ShareBaseURL: "coreview://open",
			HistoryTurns: 3,
			Session:      "default",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for coreview.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "coreview"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "coreview"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "coreview"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "coreview"), nil
	default:
		return filepath.Join(home, ".config", "coreview"), nil
	}
}

// ConfigPath returns the full path to the config file. COREVIEW_CONFIG
// takes precedence over the config directory.
func ConfigPath() (string, error) {
	if p := os.Getenv("COREVIEW_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile returns the defaults overlaid with the config file. A missing
// file yields the defaults.
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var data []byte
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var envKeys = map[string]string{
	"COREVIEW_PROVIDER":   "provider",
	"COREVIEW_MODEL":      "model",
	"COREVIEW_ADDR":       "server.addr",
	"COREVIEW_SERVER_URL": "client.serverUrl",
	"COREVIEW_LOG_LEVEL":  "log.level",
	"COREVIEW_LOG_FORMAT": "log.format",
	"COREVIEW_CACHE_TTL":  "cache.ttlSeconds",
}

func mergeEnv(cfg *Config) error {
	for env, key := range envKeys {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

var overrideKeys = map[string]string{
	"provider":     "provider",
	"model":        "model",
	"rulesFile":    "rulesFile",
	"addr":         "server.addr",
	"serverUrl":    "client.serverUrl",
	"session":      "client.session",
	"historyTurns": "client.historyTurns",
	"logLevel":     "log.level",
	"logFormat":    "log.format",
	"logFile":      "log.file",
	"noCache":      "cache.enabled",
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for flag, v := range overrides {
		if v == "" {
			continue
		}
		key, ok := overrideKeys[flag]
		if !ok {
			continue
		}
		if flag == "noCache" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("--no-cache: %w", err)
			}
			v = strconv.FormatBool(!b)
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
	}
	return nil
}

// Keys lists every key accepted by SetField.
func Keys() []string {
	return []string{
		"provider", "model", "rulesFile",
		"server.addr", "server.allowedOrigins", "server.reviewRatePerMinute", "server.reviewBurst",
		"server.maxMessageBytes", "server.pingIntervalSeconds", "server.historyTurns",
		"client.serverUrl", "client.shareBaseUrl", "client.historyTurns", "client.session",
		"cache.enabled", "cache.dir", "cache.ttlSeconds",
		"privacy.redactSecrets",
		"log.level", "log.format", "log.file",
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "rulesFile":
		cfg.RulesFile = value
	case "server.addr":
		cfg.Server.Addr = value
	case "server.allowedOrigins":
		cfg.Server.AllowedOrigins = splitList(value)
	case "server.reviewRatePerMinute":
		return setInt(&cfg.Server.ReviewRatePerMinute, key, value)
	case "server.reviewBurst":
		return setInt(&cfg.Server.ReviewBurst, key, value)
	case "server.maxMessageBytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.Server.MaxMessageBytes = n
	case "server.pingIntervalSeconds":
		return setInt(&cfg.Server.PingIntervalSeconds, key, value)
	case "server.historyTurns":
		return setInt(&cfg.Server.HistoryTurns, key, value)
	case "client.serverUrl":
		cfg.Client.ServerURL = strings.TrimRight(value, "/")
	case "client.shareBaseUrl":
		cfg.Client.ShareBaseURL = value
	case "client.historyTurns":
		return setInt(&cfg.Client.HistoryTurns, key, value)
	case "client.session":
		cfg.Client.Session = value
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "log.level":
		cfg.Log.Level = strings.ToLower(value)
	case "log.format":
		cfg.Log.Format = strings.ToLower(value)
	case "log.file":
		cfg.Log.File = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
