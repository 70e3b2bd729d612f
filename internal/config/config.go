package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// APIKeyEnv is consulted when no key was configured
const APIKeyEnv = "LOOPCHAT_API_KEY"

// Config holds application configuration
type Config struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	APIKey        string `yaml:"api_key"`
	SessionID     string `yaml:"session_id"`
	SystemMessage string `yaml:"system_message"`
	Debug         bool   `yaml:"debug"`

	LogDir    string `yaml:"log_dir"`
	DBPath    string `yaml:"db_path"`
	ServeAddr string `yaml:"serve_addr"` // empty runs the interactive CLI
}

// Default returns the configuration used when nothing else is given
func Default() Config {
	return Config{
		Provider:      ProviderOpenAI,
		Model:         "gpt-4o",
		SystemMessage: "You are a helpful assistant that designs loops: recurring checklists with a name, description, color, reset rule and tasks. Reply with JSON only.",
		LogDir:        "logs",
		DBPath:        "loopchat.db",
	}
}

// Load reads path on top of Default. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnv)
	}

	return cfg, nil
}

// Validate checks settings the CLI depends on. The chat values themselves
// are passed through untouched.
func (c Config) Validate() error {
	var errs []error
	if !IsKnownProvider(c.Provider) {
		errs = append(errs, fmt.Errorf("unknown provider: %q", c.Provider))
	}
	if strings.TrimSpace(c.LogDir) == "" {
		errs = append(errs, errors.New("log_dir must not be empty"))
	}
	return errors.Join(errs...)
}

// Providers lists the provider names accepted by the CLI
func Providers() []string {
	return []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}
}

func IsKnownProvider(name string) bool {
	for _, p := range Providers() {
		if p == name {
			return true
		}
	}
	return false
}
