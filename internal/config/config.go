package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config is the bot's runtime configuration, loaded from a JSON file with
// environment variables as the highest-precedence overrides.
type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	MaxConcurrent int    `json:"max_concurrent"`
	ForegroundDir string `json:"foreground_dir"`
	Bot           struct {
		APIBaseURL string `json:"api_base_url"`
		Token      string `json:"token"`
	} `json:"bot"`
	Send struct {
		MaxAttempts  int `json:"max_attempts"`
		RetryDelayMS int `json:"retry_delay_ms"`
	} `json:"send"`
}

// DownloadsDir is where fetched source images are cached.
func (c *Config) DownloadsDir() string { return filepath.Join(c.DataDir, "downloads") }

// ReadyDir is where composited photos are written.
func (c *Config) ReadyDir() string { return filepath.Join(c.DataDir, "ready") }

// CursorPath is the persisted poll position.
func (c *Config) CursorPath() string { return filepath.Join(c.DataDir, "cursor.json") }

// Load reads the config at path, writing defaults there on first run. A
// local .env file, if present, is folded into the environment before the env
// overrides are applied.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".snowbot"),
		LogLevel:      "info",
		MaxConcurrent: 4,
		ForegroundDir: "foreground",
	}
	cfg.Bot.APIBaseURL = "https://botapi.tamtam.chat"
	cfg.Send.MaxAttempts = 30
	cfg.Send.RetryDelayMS = 500

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// .env is optional; a missing file is not an error.
	godotenv.Load()

	// Override from env (highest precedence)
	if token := os.Getenv("SNOWBOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if baseURL := os.Getenv("SNOWBOT_API_URL"); baseURL != "" {
		cfg.Bot.APIBaseURL = baseURL
	}
	if dataDir := os.Getenv("SNOWBOT_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	return cfg, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}

// ListValues returns the config as a flat dot-keyed map, masking secrets when
// mask is true.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	flat := Flatten(nested)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue reads a single dot-keyed value straight from the config file.
func GetValue(path, key string) (any, error) {
	nested, err := readFile(path)
	if err != nil {
		return nil, err
	}
	flat := Flatten(nested)
	val, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return val, nil
}

// SetValue writes a single dot-keyed value into the config file, creating the
// file from an empty object if needed.
func SetValue(path, key, value string) error {
	nested, err := readFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		nested = make(map[string]any)
	}
	flat := Flatten(nested)
	flat[key] = coerce(value)
	data, err := json.MarshalIndent(Unflatten(flat), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return nested, nil
}

// coerce keeps numbers and booleans typed when set from the CLI.
func coerce(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	var f float64
	if err := json.Unmarshal([]byte(value), &f); err == nil {
		return f
	}
	return value
}
