package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// failure policy for a run when a single file fails
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// Duration wraps time.Duration so YAML accepts "2m"-style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full configuration surface. Every knob is a named option;
// flags override values loaded from the file.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Translation TranslationConfig `yaml:"translation"`
	Paths       PathsConfig       `yaml:"paths"`
	Run         RunConfig         `yaml:"run"`
}

type ServerConfig struct {
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	// request timeout, e.g. "2m"
	Timeout Duration `yaml:"timeout"`
}

type TranslationConfig struct {
	InputLanguage  string  `yaml:"input_language"`
	TargetLanguage string  `yaml:"target_language"`
	SystemPrompt   string  `yaml:"system_prompt"`
	Temperature    float64 `yaml:"temperature"`
	BatchSize      int     `yaml:"batch_size"`
	Overlay        bool    `yaml:"overlay"`
}

type PathsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

type RunConfig struct {
	// Concurrency bounds parallel files; BatchConcurrency bounds parallel
	// batch requests within one file. Up to Concurrency*BatchConcurrency
	// requests can be in flight at once.
	Concurrency      int    `yaml:"concurrency"`
	BatchConcurrency int    `yaml:"batch_concurrency"`
	MaxRetries       int    `yaml:"max_retries"`
	OnError          string `yaml:"on_error"`
}

// Load reads a YAML config file. A missing path yields a default config so the
// tool works from flags alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Provider == "" {
		c.Server.Provider = "ollama"
	}
	if c.Server.Provider == "ollama" && c.Server.Endpoint == "" {
		c.Server.Endpoint = "http://localhost:11434"
	}
	if c.Server.Provider == "ollama" && c.Server.Model == "" {
		return fmt.Errorf("server.model is required")
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = Duration(2 * time.Minute)
	}

	if c.Translation.TargetLanguage == "" {
		return fmt.Errorf("translation.target_language is required")
	}
	if c.Translation.Temperature < 0 || c.Translation.Temperature > 2 {
		return fmt.Errorf(
			"translation.temperature must be in [0, 2], got %v",
			c.Translation.Temperature,
		)
	}
	if c.Translation.BatchSize < 0 {
		return fmt.Errorf(
			"translation.batch_size must be positive, got %d",
			c.Translation.BatchSize,
		)
	}
	if c.Translation.BatchSize == 0 {
		c.Translation.BatchSize = 50
	}

	if c.Run.Concurrency < 0 {
		return fmt.Errorf(
			"run.concurrency must be positive, got %d",
			c.Run.Concurrency,
		)
	}
	if c.Run.Concurrency == 0 {
		c.Run.Concurrency = 3
	}
	if c.Run.BatchConcurrency < 0 {
		return fmt.Errorf(
			"run.batch_concurrency must be positive, got %d",
			c.Run.BatchConcurrency,
		)
	}
	if c.Run.BatchConcurrency == 0 {
		c.Run.BatchConcurrency = 2
	}
	if c.Run.MaxRetries == 0 {
		c.Run.MaxRetries = 2
	}

	switch c.Run.OnError {
	case "":
		c.Run.OnError = OnErrorSkip
	case OnErrorAbort, OnErrorSkip:
	default:
		return fmt.Errorf(
			"run.on_error must be %q or %q, got %q",
			OnErrorAbort, OnErrorSkip, c.Run.OnError,
		)
	}

	return nil
}
