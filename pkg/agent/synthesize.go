package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kadirpekel/docpixie/pkg/prompts"
	"github.com/kadirpekel/docpixie/pkg/provider"
)

// Synthesizer combines completed task analyses into the final answer
//.
type Synthesizer struct {
	Provider       provider.Provider
	Temperature    float64
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func NewSynthesizer(p provider.Provider, temperature float64, retryAttempts int, retryBaseDelay time.Duration) *Synthesizer {
	return &Synthesizer{Provider: p, Temperature: temperature, RetryAttempts: retryAttempts, RetryBaseDelay: retryBaseDelay}
}

// Synthesize produces the final answer from completed task results. When
// none completed, it grounds an explanatory failure message in the failed
// tasks' recorded reasons rather than inventing content — no
// Provider call is made in that case.
func (s *Synthesizer) Synthesize(ctx context.Context, originalQuery, reformulatedQuery string, completed []*TaskResult, failed []*AgentTask) (string, error) {
	if len(completed) == 0 {
		return explainNoResults(failed), nil
	}

	taskLines := make([]string, 0, len(completed))
	for _, r := range completed {
		taskLines = append(taskLines, fmt.Sprintf("Task: %s\nDescription: %s\nAnalysis: %s", r.Task.Name, r.Task.Description, r.Analysis))
	}
	failureLines := make([]string, 0, len(failed))
	for _, t := range failed {
		failureLines = append(failureLines, fmt.Sprintf("- %s: %s", t.Name, t.FailureReason))
	}

	req := provider.Request{
		Messages: []provider.Message{
			provider.TextMessage(provider.RoleSystem, prompts.Synthesis),
			provider.TextMessage(provider.RoleUser, prompts.BuildSynthesisPrompt(originalQuery, reformulatedQuery, taskLines, failureLines)),
		},
		MaxTokens:   2048,
		Temperature: s.Temperature,
	}

	text, err := withRetry(ctx, s.RetryAttempts, s.RetryBaseDelay, func() (string, error) {
		return s.Provider.ProcessText(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// explainNoResults builds a grounded failure message when zero tasks
// completed, naming each failure's recorded reason instead of fabricating
// an answer.
func explainNoResults(failed []*AgentTask) string {
	if len(failed) == 0 {
		return "I was unable to analyze any documents for this query: no tasks completed."
	}
	var b strings.Builder
	b.WriteString("I was unable to answer this query because every planned task failed:\n")
	for _, t := range failed {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.FailureReason)
	}
	return strings.TrimSpace(b.String())
}
