package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kadirpekel/docpixie/internal/transport"
)

// AnthropicConfig configures an Anthropic-like Provider.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string // defaults to https://api.anthropic.com
	TextModel   string
	VisionModel string
	Timeout     time.Duration
	MaxRetries  int
	BaseDelay   time.Duration
}

// AnthropicProvider talks to Anthropic's Messages API.
type AnthropicProvider struct {
	cfg    AnthropicConfig
	client *transport.Client
}

// NewAnthropicProvider builds an Anthropic-like Provider over the shared
// retrying HTTP transport.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, &AuthError{Vendor: "anthropic", Err: fmt.Errorf("missing API key")}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &AnthropicProvider{
		cfg: cfg,
		client: transport.New(
			transport.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			transport.WithMaxRetries(cfg.MaxRetries),
			transport.WithBaseDelay(cfg.BaseDelay),
			transport.WithHeaderParser(transport.ParseAnthropicHeaders),
		),
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *AnthropicProvider) ProcessText(ctx context.Context, req Request) (string, error) {
	return p.do(ctx, req, p.cfg.TextModel)
}

func (p *AnthropicProvider) ProcessMultimodal(ctx context.Context, req Request) (string, error) {
	return p.do(ctx, req, p.cfg.VisionModel)
}

func (p *AnthropicProvider) do(ctx context.Context, req Request, model string) (string, error) {
	// Anthropic requires the system prompt as a top-level field rather than
	// a message with role=system.
	var systemParts []string
	messages := make([]anthropicMessage, 0, len(req.Messages))

	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			for _, part := range m.Parts {
				if part.IsText() {
					systemParts = append(systemParts, part.TextValue())
				}
			}
			continue
		}

		blocks, err := p.buildBlocks(ctx, m)
		if err != nil {
			return "", &BadRequestError{Vendor: "anthropic", Err: err}
		}
		messages = append(messages, anthropicMessage{Role: string(m.Role), Content: blocks})
	}

	anthReq := anthropicRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      strings.Join(systemParts, "\n\n"),
	}

	body, err := json.Marshal(anthReq)
	if err != nil {
		return "", &BadRequestError{Vendor: "anthropic", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", &BadRequestError{Vendor: "anthropic", Err: err}
	}
	httpReq.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError("anthropic", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &AuthError{Vendor: "anthropic", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &BadRequestError{Vendor: "anthropic", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(respBody, &anthResp); err != nil {
		return "", &BadRequestError{Vendor: "anthropic", Err: fmt.Errorf("decode response: %w", err)}
	}
	if anthResp.Error != nil {
		return "", &BadRequestError{Vendor: "anthropic", Err: fmt.Errorf("%s: %s", anthResp.Error.Type, anthResp.Error.Message)}
	}

	var text strings.Builder
	for _, block := range anthResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// buildBlocks renders a Message's parts into Anthropic content blocks: text
// blocks and base64-encoded image blocks.
func (p *AnthropicProvider) buildBlocks(ctx context.Context, m Message) ([]anthropicContentBlock, error) {
	blocks := make([]anthropicContentBlock, 0, len(m.Parts))
	for _, part := range m.Parts {
		if part.IsText() {
			blocks = append(blocks, anthropicContentBlock{Type: "text", Text: part.TextValue()})
			continue
		}

		data, mediaType, err := loadImage(ctx, part.ImageValue())
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, anthropicContentBlock{
			Type: "image",
			Source: &anthropicImageSource{
				Type:      "base64",
				MediaType: mediaType,
				Data:      base64Encode(data),
			},
		})
	}
	return blocks, nil
}
