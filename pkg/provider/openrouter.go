package provider

import (
	"context"
	"time"
)

// OpenRouterConfig configures the OpenRouter Provider, which is wire-compatible
// with OpenAI's Chat Completions API but requires its own base URL,
// model catalog, and attribution headers.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string // defaults to https://openrouter.ai/api/v1
	TextModel   string
	VisionModel string
	Timeout     time.Duration
	MaxRetries  int
	BaseDelay   time.Duration
	// SiteURL and AppName populate OpenRouter's optional attribution
	// headers (HTTP-Referer, X-Title), used for their public rankings.
	SiteURL string
	AppName string
}

// OpenRouterProvider delegates to an embedded OpenAIProvider configured for
// OpenRouter's endpoint; it exists as a distinct type so Name() and
// vendor-specific header injection are correct, treating OpenRouter as a
// peer vendor rather than a flavor of OpenAI.
type OpenRouterProvider struct {
	inner *OpenAIProvider
}

// NewOpenRouterProvider builds an OpenRouter Provider.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}

	headers := map[string]string{}
	if cfg.SiteURL != "" {
		headers["HTTP-Referer"] = cfg.SiteURL
	}
	if cfg.AppName != "" {
		headers["X-Title"] = cfg.AppName
	}

	inner, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		TextModel:    cfg.TextModel,
		VisionModel:  cfg.VisionModel,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		BaseDelay:    cfg.BaseDelay,
		ExtraHeaders: headers,
	})
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{inner: inner}, nil
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) ProcessText(ctx context.Context, req Request) (string, error) {
	text, err := p.inner.ProcessText(ctx, req)
	return text, rewriteVendor(err, "openrouter")
}

func (p *OpenRouterProvider) ProcessMultimodal(ctx context.Context, req Request) (string, error) {
	text, err := p.inner.ProcessMultimodal(ctx, req)
	return text, rewriteVendor(err, "openrouter")
}

// rewriteVendor relabels a Provider error raised by the embedded OpenAI
// adapter so callers see "openrouter" rather than "openai" in error text
// and logs.
func rewriteVendor(err error, vendor string) error {
	switch e := err.(type) {
	case *AuthError:
		return &AuthError{Vendor: vendor, Err: e.Err}
	case *TransientError:
		return &TransientError{Vendor: vendor, Err: e.Err}
	case *BadRequestError:
		return &BadRequestError{Vendor: vendor, Err: e.Err}
	case *TimeoutError:
		return &TimeoutError{Vendor: vendor, Err: e.Err}
	default:
		return err
	}
}
