package agent

import (
	"context"
	"strings"
	"time"

	"github.com/kadirpekel/docpixie/pkg/prompts"
	"github.com/kadirpekel/docpixie/pkg/provider"
)

// Classifier decides whether a query needs document analysis.
type Classifier struct {
	Provider       provider.Provider
	Temperature    float64
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func NewClassifier(p provider.Provider, temperature float64, retryAttempts int, retryBaseDelay time.Duration) *Classifier {
	return &Classifier{Provider: p, Temperature: temperature, RetryAttempts: retryAttempts, RetryBaseDelay: retryBaseDelay}
}

// Classification is the Classifier's decision for one query.
type Classification struct {
	NeedsDocuments bool
	Reasoning      string
	DirectAnswer   string
}

type classifyResponse struct {
	NeedsDocuments bool   `json:"needs_documents"`
	Reasoning      string `json:"reasoning"`
	DirectAnswer   string `json:"direct_answer"`
}

// Classify calls the Provider once and parses its decision. A parse
// failure defaults to NeedsDocuments=true, failing open toward document
// analysis rather than risking a wrong direct answer.
func (c *Classifier) Classify(ctx context.Context, query string) (Classification, error) {
	req := provider.Request{
		Messages: []provider.Message{
			provider.TextMessage(provider.RoleSystem, prompts.Classification),
			provider.TextMessage(provider.RoleUser, query),
		},
		MaxTokens:   512,
		Temperature: c.Temperature,
	}

	text, err := withRetry(ctx, c.RetryAttempts, c.RetryBaseDelay, func() (string, error) {
		return c.Provider.ProcessText(ctx, req)
	})
	if err != nil {
		return Classification{}, err
	}

	var resp classifyResponse
	if err := extractJSON("classifier", text, &resp); err != nil {
		return Classification{NeedsDocuments: true, Reasoning: "parse failure, failing open"}, nil
	}

	return Classification{
		NeedsDocuments: resp.NeedsDocuments,
		Reasoning:      strings.TrimSpace(resp.Reasoning),
		DirectAnswer:   strings.TrimSpace(resp.DirectAnswer),
	}, nil
}
