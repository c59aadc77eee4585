// Package config loads the process-wide configuration from a single YAML
// file into an immutable value. Components receive the sections they need
// through their constructors; nothing reads ambient global state.
package config

// #region imports
import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region duration

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// #endregion

// #region config

// Config is the full configuration surface consumed by the core.
type Config struct {
	Index     IndexConfig              `yaml:"index"`
	Embedder  EmbedderConfig           `yaml:"embedder"`
	Retrieval RetrievalConfig          `yaml:"retrieval"`
	Prompt    PromptConfig             `yaml:"prompt"`
	Routes    map[string]Route         `yaml:"routes"`
	Templates map[string]string        `yaml:"templates"`
	Backends  map[string]BackendConfig `yaml:"backends"`
	Dispatch  DispatchConfig           `yaml:"dispatch"`
	Analytics AnalyticsConfig          `yaml:"analytics"`
	Logging   LoggingConfig            `yaml:"logging"`
}

// IndexConfig configures document ingestion and index persistence.
type IndexConfig struct {
	DBPath        string `yaml:"db_path"`
	WindowSize    int    `yaml:"window_size"`
	WindowOverlap int    `yaml:"window_overlap"`
	EmbedWorkers  int    `yaml:"embed_workers"`
}

// EmbedderConfig selects the embedding function identity.
type EmbedderConfig struct {
	Provider string `yaml:"provider"` // openai, ollama, google
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// RetrievalConfig configures the retriever.
type RetrievalConfig struct {
	TopKDefault int `yaml:"top_k_default"`
}

// PromptConfig bounds the composed prompt.
type PromptConfig struct {
	ContextCharBudget int `yaml:"context_char_budget"`
	MaxRecentTurns    int `yaml:"max_recent_turns"`
}

// Route maps a task type onto a backend and model.
type Route struct {
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// BackendConfig describes one model backend entry. Kind selects the adapter
// implementation; several entries may share a kind (e.g. an OpenAI-compatible
// provider reached through a custom base URL).
type BackendConfig struct {
	Kind    string `yaml:"kind"` // openai, anthropic, google, ollama
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// DispatchConfig configures the retry policy around backend calls.
type DispatchConfig struct {
	MaxAttempts    int      `yaml:"max_attempts"`
	BackoffBase    Duration `yaml:"backoff_base"`
	BackoffCap     Duration `yaml:"backoff_cap"`
	PerCallTimeout Duration `yaml:"per_call_timeout"`
	MaxResponseLen int      `yaml:"max_response_length"`
}

// AnalyticsConfig configures the call-record sink.
type AnalyticsConfig struct {
	DBPath string `yaml:"db_path"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// #endregion

// #region defaults

// Default returns the configuration used when a field is absent from the
// file. Window and overlap sizes match the original ingestion pipeline.
func Default() Config {
	return Config{
		Index: IndexConfig{
			DBPath:        "knowledge.db",
			WindowSize:    1000,
			WindowOverlap: 200,
			EmbedWorkers:  4,
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Retrieval: RetrievalConfig{TopKDefault: 4},
		Prompt: PromptConfig{
			ContextCharBudget: 3000,
			MaxRecentTurns:    6,
		},
		Dispatch: DispatchConfig{
			MaxAttempts:    3,
			BackoffBase:    Duration(500 * time.Millisecond),
			BackoffCap:     Duration(4 * time.Second),
			PerCallTimeout: Duration(30 * time.Second),
			MaxResponseLen: 4000,
		},
		Analytics: AnalyticsConfig{DBPath: "analytics.db"},
	}
}

// #endregion

// #region load

// Load reads, overlays, and validates the configuration file at path.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays secrets from the environment so key material never has
// to live in the config file. A backend named "openai" reads OPENAI_API_KEY,
// "deepseek" reads DEEPSEEK_API_KEY, and so on; the embedder reads the key
// named after its provider. A set environment variable always wins over the
// file value.
func (c *Config) applyEnv() {
	for id, b := range c.Backends {
		if v := os.Getenv(envKeyName(id)); v != "" {
			b.APIKey = v
			c.Backends[id] = b
		}
	}
	if v := os.Getenv(envKeyName(c.Embedder.Provider)); v != "" {
		c.Embedder.APIKey = v
	}
}

func envKeyName(id string) string {
	id = strings.ReplaceAll(strings.ToUpper(id), "-", "_")
	return id + "_API_KEY"
}

// #endregion

// #region validate

// Validate rejects configurations the core cannot serve with.
func (c *Config) Validate() error {
	if c.Index.WindowSize <= 0 {
		return fmt.Errorf("config: index.window_size must be positive, got %d", c.Index.WindowSize)
	}
	if c.Index.WindowOverlap < 0 {
		return fmt.Errorf("config: index.window_overlap must not be negative, got %d", c.Index.WindowOverlap)
	}
	if c.Index.WindowOverlap >= c.Index.WindowSize {
		return fmt.Errorf("config: index.window_overlap %d must be smaller than window_size %d",
			c.Index.WindowOverlap, c.Index.WindowSize)
	}
	if c.Retrieval.TopKDefault <= 0 {
		return fmt.Errorf("config: retrieval.top_k_default must be positive, got %d", c.Retrieval.TopKDefault)
	}
	if c.Prompt.ContextCharBudget <= 0 {
		return fmt.Errorf("config: prompt.context_char_budget must be positive, got %d", c.Prompt.ContextCharBudget)
	}
	if c.Prompt.MaxRecentTurns < 0 {
		return fmt.Errorf("config: prompt.max_recent_turns must not be negative, got %d", c.Prompt.MaxRecentTurns)
	}
	if c.Dispatch.MaxAttempts < 1 {
		return fmt.Errorf("config: dispatch.max_attempts must be at least 1, got %d", c.Dispatch.MaxAttempts)
	}
	if c.Dispatch.PerCallTimeout <= 0 {
		return fmt.Errorf("config: dispatch.per_call_timeout must be positive")
	}
	if c.Dispatch.MaxResponseLen <= 0 {
		return fmt.Errorf("config: dispatch.max_response_length must be positive, got %d", c.Dispatch.MaxResponseLen)
	}
	for task, route := range c.Routes {
		if route.Backend == "" {
			return fmt.Errorf("config: route %q has no backend", task)
		}
		if _, ok := c.Backends[route.Backend]; !ok {
			return fmt.Errorf("config: route %q references unknown backend %q", task, route.Backend)
		}
		if route.Model == "" {
			return fmt.Errorf("config: route %q has no model", task)
		}
	}
	for task, tmpl := range c.Templates {
		if strings.TrimSpace(tmpl) == "" {
			return fmt.Errorf("config: template %q is empty", task)
		}
	}
	return nil
}

// #endregion
