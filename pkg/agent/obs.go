package agent

import (
	"context"
	"log/slog"

	"github.com/kadirpekel/docpixie/pkg/provider"
	"github.com/kadirpekel/docpixie/pkg/tokencount"
)

// logPromptSize emits a debug record with the estimated text token count
// and image count of a multimodal prompt about to be sent. Estimation is
// observability only; it never changes what gets sent.
func logPromptSize(ctx context.Context, component string, tc *tokencount.Counter, parts []provider.Part) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}
	textTokens, images := 0, 0
	for _, p := range parts {
		if p.IsText() {
			textTokens += tc.Count(p.TextValue())
		} else {
			images++
		}
	}
	slog.Debug("sending multimodal prompt",
		"component", component,
		"text_tokens", textTokens,
		"images", images)
}
