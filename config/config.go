// Package config loads and validates the module's configuration: provider
// selection, pipeline bounds, temperatures, and logging. Backed by a YAML
// file with an environment-variable overlay for secrets.
package config

import "fmt"

// Temperatures holds the per-call-kind temperature settings.
type Temperatures struct {
	Classification float64 `yaml:"classification"`
	Reformulation  float64 `yaml:"reformulation"`
	Selection      float64 `yaml:"selection"`
	Analysis       float64 `yaml:"analysis"`
	Synthesis      float64 `yaml:"synthesis"`
	Summary        float64 `yaml:"summary"`
}

// ProviderConfig holds the per-vendor connection details. Only the fields
// relevant to the selected Config.Provider are required.
type ProviderConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	TextModel   string `yaml:"text_model"`
	VisionModel string `yaml:"vision_model"`
	SiteURL     string `yaml:"site_url"` // OpenRouter attribution only
	AppName     string `yaml:"app_name"` // OpenRouter attribution only
}

// Config is the root configuration object, loaded from YAML.
type Config struct {
	Provider string `yaml:"provider"` // openai|anthropic|openrouter

	OpenAI     ProviderConfig `yaml:"openai"`
	Anthropic  ProviderConfig `yaml:"anthropic"`
	OpenRouter ProviderConfig `yaml:"openrouter"`

	MaxAgentIterations int `yaml:"max_agent_iterations"`
	MaxPagesPerTask    int `yaml:"max_pages_per_task"`
	MaxTasksPerPlan    int `yaml:"max_tasks_per_plan"`

	MaxConversationTurns int `yaml:"max_conversation_turns"`
	TurnsToSummarize     int `yaml:"turns_to_summarize"`
	TurnsToKeepFull      int `yaml:"turns_to_keep_full"`

	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	RetryAttempts         int `yaml:"retry_attempts"`

	Temperatures Temperatures `yaml:"temperatures"`

	IncludePageSummariesInSelection bool `yaml:"include_page_summaries_in_selection"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		Provider: "openai",

		OpenAI:     ProviderConfig{TextModel: "gpt-4o-mini", VisionModel: "gpt-4o"},
		Anthropic:  ProviderConfig{TextModel: "claude-3-5-sonnet-20241022", VisionModel: "claude-3-5-sonnet-20241022"},
		OpenRouter: ProviderConfig{TextModel: "openai/gpt-4o-mini", VisionModel: "openai/gpt-4o"},

		MaxAgentIterations: 5,
		MaxPagesPerTask:    6,
		MaxTasksPerPlan:    4,

		MaxConversationTurns: 8,
		TurnsToSummarize:     5,
		TurnsToKeepFull:      3,

		RequestTimeoutSeconds: 60,
		RetryAttempts:         3,

		Temperatures: Temperatures{
			Classification: 0.1,
			Reformulation:  0.1,
			Selection:      0.1,
			Analysis:       0.3,
			Synthesis:      0.4,
			Summary:        0.2,
		},

		IncludePageSummariesInSelection: true,

		LogLevel:  "info",
		LogFormat: "simple",
	}
}

// Validate checks enum and bound fields, and that an API key is resolvable
// for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic", "openrouter":
	default:
		return fmt.Errorf("config: unsupported provider %q (want openai, anthropic, or openrouter)", c.Provider)
	}

	if err := c.activeProviderConfig().validate(c.Provider); err != nil {
		return err
	}

	for name, v := range map[string]int{
		"max_agent_iterations":    c.MaxAgentIterations,
		"max_pages_per_task":      c.MaxPagesPerTask,
		"max_tasks_per_plan":      c.MaxTasksPerPlan,
		"max_conversation_turns":  c.MaxConversationTurns,
		"turns_to_summarize":      c.TurnsToSummarize,
		"turns_to_keep_full":      c.TurnsToKeepFull,
		"request_timeout_seconds": c.RequestTimeoutSeconds,
		"retry_attempts":          c.RetryAttempts,
	} {
		if v <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", name, v)
		}
	}

	return nil
}

// activeProviderConfig returns the ProviderConfig for c.Provider.
func (c *Config) activeProviderConfig() ProviderConfig {
	switch c.Provider {
	case "anthropic":
		return c.Anthropic
	case "openrouter":
		return c.OpenRouter
	default:
		return c.OpenAI
	}
}

func (p ProviderConfig) validate(provider string) error {
	if p.APIKey == "" {
		return fmt.Errorf("config: %s.api_key is required (set directly or via environment)", provider)
	}
	return nil
}
