package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kadirpekel/docpixie/pkg/prompts"
	"github.com/kadirpekel/docpixie/pkg/provider"
	"github.com/kadirpekel/docpixie/pkg/tokencount"
)

// ContextProcessor compresses a long conversation history into a short
// summary plus the most recent verbatim turns. It is pure aside from the
// one Provider call it issues when compaction is needed.
type ContextProcessor struct {
	Provider provider.Provider

	MaxTurns         int
	TurnsToSummarize int
	TurnsToKeepFull  int
	Temperature      float64
	RetryAttempts    int
	RetryBaseDelay   time.Duration

	tokens *tokencount.Counter // optional; nil degrades to length-based estimates
}

// NewContextProcessor builds a ContextProcessor. tokenModel, when non-empty,
// selects the encoding used for size logging; pass "" to use length-based
// estimates instead.
func NewContextProcessor(p provider.Provider, maxTurns, turnsToSummarize, turnsToKeepFull int, temperature float64, retryAttempts int, retryBaseDelay time.Duration, tokenModel string) *ContextProcessor {
	cp := &ContextProcessor{
		Provider:         p,
		MaxTurns:         maxTurns,
		TurnsToSummarize: turnsToSummarize,
		TurnsToKeepFull:  turnsToKeepFull,
		Temperature:      temperature,
		RetryAttempts:    retryAttempts,
		RetryBaseDelay:   retryBaseDelay,
	}
	if tokenModel != "" {
		if tc, err := tokencount.New(tokenModel); err == nil {
			cp.tokens = tc
		}
	}
	return cp
}

// Process returns (empty summary, history unchanged) when history holds at
// most MaxTurns user turns; otherwise it summarizes the older turns via the
// Provider and returns the summary alongside the verbatim tail. The
// decision is turn-count-based only; token counts are logged for
// observability and never gate it.
func (cp *ContextProcessor) Process(ctx context.Context, history []ConversationMessage) (string, []ConversationMessage, error) {
	starts := userTurnStarts(history)
	if len(starts) <= cp.MaxTurns {
		return "", history, nil
	}

	keep := cp.TurnsToKeepFull
	if keep > len(starts) {
		keep = len(starts)
	}
	splitAt := starts[len(starts)-keep]
	older := history[:splitAt]
	tail := history[splitAt:]

	if olderStarts := userTurnStarts(older); len(olderStarts) > cp.TurnsToSummarize {
		older = older[olderStarts[len(olderStarts)-cp.TurnsToSummarize]:]
	}
	if len(older) == 0 {
		return "", tail, nil
	}

	transcript := formatTranscript(older)

	req := provider.Request{
		Messages: []provider.Message{
			provider.TextMessage(provider.RoleSystem, prompts.ContextSummary),
			provider.TextMessage(provider.RoleUser, transcript),
		},
		MaxTokens:   1024,
		Temperature: cp.Temperature,
	}

	summary, err := withRetry(ctx, cp.RetryAttempts, cp.RetryBaseDelay, func() (string, error) {
		return cp.Provider.ProcessText(ctx, req)
	})
	if err != nil {
		return "", history, err
	}
	summary = strings.TrimSpace(summary)

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		slog.Debug("compacted conversation history",
			"turns", len(starts),
			"kept_turns", keep,
			"tokens_before", cp.tokens.CountMessages(asTokenMessages(history)),
			"tokens_after", cp.tokens.Count(summary)+cp.tokens.CountMessages(asTokenMessages(tail)))
	}

	return summary, tail, nil
}

// userTurnStarts returns the index of every user message in history. One
// user turn spans from its user message up to the next one.
func userTurnStarts(history []ConversationMessage) []int {
	var starts []int
	for i, m := range history {
		if m.Role == RoleUser {
			starts = append(starts, i)
		}
	}
	return starts
}

func asTokenMessages(msgs []ConversationMessage) []tokencount.Message {
	out := make([]tokencount.Message, len(msgs))
	for i, m := range msgs {
		out[i] = tokencount.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// formatTranscript renders conversation messages as "ROLE: content" lines
// for inclusion in a text-only Provider prompt.
func formatTranscript(msgs []ConversationMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(m.Role)), m.Content)
	}
	return b.String()
}
