package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/kadirpekel/docpixie/pkg/docset"
	"github.com/kadirpekel/docpixie/pkg/prompts"
	"github.com/kadirpekel/docpixie/pkg/provider"
	"github.com/kadirpekel/docpixie/pkg/tokencount"
)

// PageSelector chooses which pages of a task's assigned document are
// relevant, using the vision model itself. It never returns pages from a
// document other than the one it was given.
type PageSelector struct {
	Provider                     provider.Provider
	MaxPagesPerTask              int
	Temperature                  float64
	RetryAttempts                int
	RetryBaseDelay               time.Duration
	IncludePageSummariesInPrompt bool

	// Tokens, when set, enables prompt-size debug logging.
	Tokens *tokencount.Counter
}

func NewPageSelector(p provider.Provider, maxPagesPerTask int, temperature float64, retryAttempts int, retryBaseDelay time.Duration, includeSummaries bool) *PageSelector {
	return &PageSelector{
		Provider:                     p,
		MaxPagesPerTask:              maxPagesPerTask,
		Temperature:                  temperature,
		RetryAttempts:                retryAttempts,
		RetryBaseDelay:               retryBaseDelay,
		IncludePageSummariesInPrompt: includeSummaries,
	}
}

type selectionResponse struct {
	SelectedPages []int  `json:"selected_pages"`
	Reasoning     string `json:"reasoning"`
}

// Select returns the pages of pages most relevant to taskDescription,
// bounded by MaxPagesPerTask. On a parse or empty-selection outcome
// it falls back deterministically to the first min(n, MaxPagesPerTask)
// pages.
func (s *PageSelector) Select(ctx context.Context, taskDescription string, pages []docset.Page) ([]docset.Page, error) {
	if len(pages) == 0 {
		return nil, nil
	}

	parts := []provider.Part{provider.Text(prompts.Selection), provider.Text("\n\nTask:\n" + taskDescription + "\n")}
	for _, pg := range pages {
		if s.IncludePageSummariesInPrompt && pg.Summary != "" {
			parts = append(parts, provider.Text(fmt.Sprintf("\n%s %s", prompts.PageMarker(pg.Number), pg.Summary)))
		} else {
			parts = append(parts, provider.Text("\n"+prompts.PageMarker(pg.Number)))
		}
		parts = append(parts, provider.Image(pg.Image))
	}

	logPromptSize(ctx, "page_selector", s.Tokens, parts)

	req := provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleUser, Parts: parts},
		},
		MaxTokens:   512,
		Temperature: s.Temperature,
	}

	text, err := withRetry(ctx, s.RetryAttempts, s.RetryBaseDelay, func() (string, error) {
		return s.Provider.ProcessMultimodal(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	var resp selectionResponse
	selected := []int(nil)
	if extractErr := extractJSON("page_selector", text, &resp); extractErr == nil {
		selected = resp.SelectedPages
	}

	byNumber := make(map[int]docset.Page, len(pages))
	for _, pg := range pages {
		byNumber[pg.Number] = pg
	}

	var out []docset.Page
	seen := make(map[int]bool, len(selected))
	for _, n := range selected {
		if seen[n] {
			continue
		}
		pg, ok := byNumber[n]
		if !ok {
			continue
		}
		seen[n] = true
		out = append(out, pg)
		if len(out) >= s.MaxPagesPerTask {
			break
		}
	}

	if len(out) == 0 {
		limit := s.MaxPagesPerTask
		if limit > len(pages) {
			limit = len(pages)
		}
		out = append([]docset.Page(nil), pages[:limit]...)
	}

	return out, nil
}
