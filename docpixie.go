// Package docpixie answers natural-language questions about documents by
// treating each page as an image and delegating both retrieval and
// understanding to a multimodal model. It is the front door of the module:
// it loads configuration, initializes logging, constructs the configured
// Provider, and wires the adaptive agent pipeline over a document store.
package docpixie

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kadirpekel/docpixie/config"
	"github.com/kadirpekel/docpixie/internal/obslog"
	"github.com/kadirpekel/docpixie/pkg/agent"
	"github.com/kadirpekel/docpixie/pkg/docset"
	"github.com/kadirpekel/docpixie/pkg/provider"
)

// Pixie is a configured instance of the document-question pipeline. It is
// safe for concurrent use: independent queries may run in parallel.
type Pixie struct {
	agent    *agent.Agent
	provider provider.Provider
}

// Open loads configuration from path (see config.Load for the lookup and
// overlay rules) and builds a Pixie over storage.
func Open(path string, storage docset.Storage) (*Pixie, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, storage)
}

// New builds a Pixie from an explicit Config. A nil cfg uses the defaults
// plus environment API keys.
func New(cfg *config.Config, storage docset.Storage) (*Pixie, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obslog.Init(obslog.ParseLevel(cfg.LogLevel), os.Stderr, cfg.LogFormat)

	p, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, p, storage)
}

// NewWithProvider builds a Pixie over an explicit Provider, bypassing
// vendor construction. Used by tests and callers with a custom transport.
func NewWithProvider(cfg *config.Config, p provider.Provider, storage docset.Storage) (*Pixie, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if p == nil {
		return nil, fmt.Errorf("docpixie: provider is required")
	}
	if storage == nil {
		return nil, fmt.Errorf("docpixie: storage is required")
	}
	return &Pixie{
		agent:    agent.New(p, storage, cfg, textModel(cfg)),
		provider: p,
	}, nil
}

// Ask answers query against the stored documents, using history to resolve
// references to earlier turns. ctx cancels in-flight model calls.
func (px *Pixie) Ask(ctx context.Context, query string, history []agent.ConversationMessage) (*agent.QueryResult, error) {
	return px.agent.ProcessQuery(ctx, query, history)
}

// ProviderName reports the active vendor, for logging and diagnostics.
func (px *Pixie) ProviderName() string {
	return px.provider.Name()
}

// buildProvider constructs the vendor adapter selected by cfg.Provider.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	switch cfg.Provider {
	case "anthropic":
		return provider.NewAnthropicProvider(provider.AnthropicConfig{
			APIKey:      cfg.Anthropic.APIKey,
			BaseURL:     cfg.Anthropic.BaseURL,
			TextModel:   cfg.Anthropic.TextModel,
			VisionModel: cfg.Anthropic.VisionModel,
			Timeout:     timeout,
			MaxRetries:  cfg.RetryAttempts,
		})
	case "openrouter":
		return provider.NewOpenRouterProvider(provider.OpenRouterConfig{
			APIKey:      cfg.OpenRouter.APIKey,
			BaseURL:     cfg.OpenRouter.BaseURL,
			TextModel:   cfg.OpenRouter.TextModel,
			VisionModel: cfg.OpenRouter.VisionModel,
			Timeout:     timeout,
			MaxRetries:  cfg.RetryAttempts,
			SiteURL:     cfg.OpenRouter.SiteURL,
			AppName:     cfg.OpenRouter.AppName,
		})
	case "openai":
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			TextModel:   cfg.OpenAI.TextModel,
			VisionModel: cfg.OpenAI.VisionModel,
			Timeout:     timeout,
			MaxRetries:  cfg.RetryAttempts,
		})
	default:
		return nil, fmt.Errorf("docpixie: unsupported provider %q", cfg.Provider)
	}
}

// textModel returns the configured text model for the active vendor, used
// to pick a token-counting encoding.
func textModel(cfg *config.Config) string {
	switch cfg.Provider {
	case "anthropic":
		return cfg.Anthropic.TextModel
	case "openrouter":
		return cfg.OpenRouter.TextModel
	default:
		return cfg.OpenAI.TextModel
	}
}
