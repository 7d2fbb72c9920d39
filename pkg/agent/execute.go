package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kadirpekel/docpixie/pkg/docset"
	"github.com/kadirpekel/docpixie/pkg/prompts"
	"github.com/kadirpekel/docpixie/pkg/provider"
	"github.com/kadirpekel/docpixie/pkg/tokencount"
)

// Executor builds a multimodal prompt from a task and its selected pages
// and obtains the task's textual analysis.
type Executor struct {
	Provider       provider.Provider
	Temperature    float64
	RetryAttempts  int
	RetryBaseDelay time.Duration

	// Tokens, when set, enables prompt-size debug logging.
	Tokens *tokencount.Counter
}

func NewExecutor(p provider.Provider, temperature float64, retryAttempts int, retryBaseDelay time.Duration) *Executor {
	return &Executor{Provider: p, Temperature: temperature, RetryAttempts: retryAttempts, RetryBaseDelay: retryBaseDelay}
}

// Execute runs task against the given pages, returning its TaskResult. On
// a ProviderError the task is left to the caller to mark failed; Execute
// itself never mutates task.Status.
func (e *Executor) Execute(ctx context.Context, query string, task *AgentTask, pages []docset.Page) (*TaskResult, error) {
	parts := []provider.Part{
		provider.Text(prompts.Analysis),
		provider.Text(fmt.Sprintf("\n\nQuery:\n%s\n\nTask:\n%s\n", query, task.Description)),
	}
	for _, pg := range pages {
		marker := prompts.PageMarker(pg.Number)
		if pg.Summary != "" {
			marker = fmt.Sprintf("%s %s", marker, pg.Summary)
		}
		parts = append(parts, provider.Text("\n"+marker))
		parts = append(parts, provider.Image(pg.Image))
	}

	logPromptSize(ctx, "executor", e.Tokens, parts)

	req := provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleUser, Parts: parts},
		},
		MaxTokens:   2048,
		Temperature: e.Temperature,
	}

	text, err := withRetry(ctx, e.RetryAttempts, e.RetryBaseDelay, func() (string, error) {
		return e.Provider.ProcessMultimodal(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	return &TaskResult{Task: task, SelectedPages: pages, Analysis: text}, nil
}

// FailureKind classifies a Provider error for recording on a failed task;
// every ProviderError maps to one of these four labels.
func FailureKind(err error) string {
	var auth *provider.AuthError
	var transient *provider.TransientError
	var badReq *provider.BadRequestError
	var timeout *provider.TimeoutError
	switch {
	case errors.As(err, &auth):
		return "auth_error"
	case errors.As(err, &transient):
		return "provider_transient"
	case errors.As(err, &badReq):
		return "provider_fatal"
	case errors.As(err, &timeout):
		return "timeout"
	default:
		return "unknown"
	}
}

// isFatalToQuery reports whether err must abort the whole pipeline rather
// than just failing the current task: AuthError only.
func isFatalToQuery(err error) bool {
	var auth *provider.AuthError
	return errors.As(err, &auth)
}
