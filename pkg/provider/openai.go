package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kadirpekel/docpixie/internal/transport"
)

// OpenAIConfig configures an OpenAI-like Provider (OpenAI itself, or any
// vendor exposing an OpenAI-compatible Chat Completions endpoint).
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // defaults to https://api.openai.com/v1
	TextModel   string
	VisionModel string
	Timeout     time.Duration
	MaxRetries  int
	BaseDelay   time.Duration
	// ExtraHeaders are set on every outgoing request, after the standard
	// Content-Type/Authorization headers. Used by vendors layered on top of
	// the OpenAI-compatible wire format (e.g. OpenRouter's attribution
	// headers) without forking the request-building logic.
	ExtraHeaders map[string]string
}

// OpenAIProvider talks to OpenAI's Chat Completions API.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *transport.Client
}

// NewOpenAIProvider builds an OpenAI-like Provider over the shared retrying
// HTTP transport.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, &AuthError{Vendor: "openai", Err: fmt.Errorf("missing API key")}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &OpenAIProvider{
		cfg: cfg,
		client: transport.New(
			transport.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			transport.WithMaxRetries(cfg.MaxRetries),
			transport.WithBaseDelay(cfg.BaseDelay),
			transport.WithHeaderParser(transport.ParseOpenAIHeaders),
		),
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

type openAIChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
	ResponseFmt *openAIResponseFmt  `json:"response_format,omitempty"`
}

type openAIResponseFmt struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string      `json:"name"`
	Schema interface{} `json:"schema"`
	Strict bool        `json:"strict"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) ProcessText(ctx context.Context, req Request) (string, error) {
	return p.do(ctx, req, p.cfg.TextModel, nil)
}

func (p *OpenAIProvider) ProcessMultimodal(ctx context.Context, req Request) (string, error) {
	return p.do(ctx, req, p.cfg.VisionModel, nil)
}

// processStructured is used by the structured-output helper (structured.go)
// to request a schema-constrained completion in one call.
func (p *OpenAIProvider) processStructured(ctx context.Context, req Request, sc *StructuredOutputConfig) (string, error) {
	return p.do(ctx, req, p.cfg.TextModel, sc)
}

func (p *OpenAIProvider) do(ctx context.Context, req Request, model string, sc *StructuredOutputConfig) (string, error) {
	messages := make([]openAIChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		content, err := p.buildContent(ctx, m)
		if err != nil {
			return "", &BadRequestError{Vendor: "openai", Err: err}
		}
		messages = append(messages, openAIChatMessage{Role: string(m.Role), Content: content})
	}

	chatReq := openAIChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if sc != nil && sc.Schema != nil {
		chatReq.ResponseFmt = &openAIResponseFmt{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   sc.Name,
				Schema: sc.Schema,
				Strict: true,
			},
		}
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", &BadRequestError{Vendor: "openai", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &BadRequestError{Vendor: "openai", Err: err}
	}
	httpReq.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	for k, v := range p.cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError("openai", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &AuthError{Vendor: "openai", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &BadRequestError{Vendor: "openai", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &BadRequestError{Vendor: "openai", Err: fmt.Errorf("decode response: %w", err)}
	}
	if chatResp.Error != nil {
		return "", &BadRequestError{Vendor: "openai", Err: fmt.Errorf("%s: %s", chatResp.Error.Type, chatResp.Error.Message)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &BadRequestError{Vendor: "openai", Err: fmt.Errorf("no choices in response")}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// buildContent renders a Message's parts into OpenAI's content shape: a
// plain string for text-only messages, or an array of typed content blocks
// when images are present.
func (p *OpenAIProvider) buildContent(ctx context.Context, m Message) (interface{}, error) {
	if len(m.Parts) == 1 && m.Parts[0].IsText() {
		return m.Parts[0].TextValue(), nil
	}

	blocks := make([]map[string]interface{}, 0, len(m.Parts))
	for _, part := range m.Parts {
		if part.IsText() {
			blocks = append(blocks, map[string]interface{}{
				"type": "text",
				"text": part.TextValue(),
			})
			continue
		}

		data, mediaType, err := loadImage(ctx, part.ImageValue())
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": dataURL(mediaType, data),
			},
		})
	}
	return blocks, nil
}

// classifyTransportError maps an error from the shared retrying transport
// into one of the Provider error kinds the agent layer understands.
func classifyTransportError(vendor string, err error) error {
	var retryErr *transport.RetryableError
	if errors.As(err, &retryErr) {
		if retryErr.StatusCode == http.StatusUnauthorized || retryErr.StatusCode == http.StatusForbidden {
			return &AuthError{Vendor: vendor, Err: err}
		}
		return &TransientError{Vendor: vendor, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Vendor: vendor, Err: err}
	}
	return &TransientError{Vendor: vendor, Err: err}
}
