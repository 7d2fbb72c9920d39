package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kadirpekel/docpixie/pkg/prompts"
	"github.com/kadirpekel/docpixie/pkg/provider"
)

// Reformulator rewrites an elliptical query into a self-contained one using
// prior conversation context.
type Reformulator struct {
	Provider       provider.Provider
	Temperature    float64
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func NewReformulator(p provider.Provider, temperature float64, retryAttempts int, retryBaseDelay time.Duration) *Reformulator {
	return &Reformulator{Provider: p, Temperature: temperature, RetryAttempts: retryAttempts, RetryBaseDelay: retryBaseDelay}
}

type reformulationResponse struct {
	Reformulated string `json:"reformulated"`
	Changed      bool   `json:"changed"`
}

// Reformulate returns query unchanged when there is no context to resolve
// against. On a parse failure or changed=false, the original query is
// returned.
func (r *Reformulator) Reformulate(ctx context.Context, query, summaryContext string, tail []ConversationMessage) (string, error) {
	if strings.TrimSpace(summaryContext) == "" && len(tail) == 0 {
		return query, nil
	}

	var b strings.Builder
	if summaryContext != "" {
		fmt.Fprintf(&b, "Context summary:\n%s\n\n", summaryContext)
	}
	if len(tail) > 0 {
		b.WriteString("Recent turns:\n")
		b.WriteString(formatTranscript(tail))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Latest user message:\n%s", query)

	req := provider.Request{
		Messages: []provider.Message{
			provider.TextMessage(provider.RoleSystem, prompts.Reformulation),
			provider.TextMessage(provider.RoleUser, b.String()),
		},
		MaxTokens:   512,
		Temperature: r.Temperature,
	}

	text, err := withRetry(ctx, r.RetryAttempts, r.RetryBaseDelay, func() (string, error) {
		return r.Provider.ProcessText(ctx, req)
	})
	if err != nil {
		return "", err
	}

	var resp reformulationResponse
	if err := extractJSON("reformulator", text, &resp); err != nil {
		return query, nil
	}
	if !resp.Changed || strings.TrimSpace(resp.Reformulated) == "" {
		return query, nil
	}
	return resp.Reformulated, nil
}
