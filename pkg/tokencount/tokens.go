// Package tokencount estimates prompt and history sizes for observability
// logging around Provider calls. Estimates never gate a pipeline decision.
package tokencount

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens with the encoding of a specific model. Safe for
// concurrent use.
type Counter struct {
	enc   *tiktoken.Tiktoken
	model string
}

var (
	encCacheMu sync.Mutex
	encCache   = map[string]*tiktoken.Tiktoken{}
)

// New builds a Counter for model. Models without a known tiktoken encoding
// (Anthropic's, OpenRouter's catalog) fall back to cl100k_base, which is
// close enough for logging purposes. Encodings are cached per model.
func New(model string) (*Counter, error) {
	encCacheMu.Lock()
	defer encCacheMu.Unlock()

	if enc, ok := encCache[model]; ok {
		return &Counter{enc: enc, model: model}, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("tokencount: load encoding for %s: %w", model, err)
		}
	}
	encCache[model] = enc
	return &Counter{enc: enc, model: model}, nil
}

// Model returns the model name the Counter was built for.
func (c *Counter) Model() string { return c.model }

// Count returns the token count of text. A nil Counter falls back to
// Approximate, so callers can hold an optional Counter without nil checks.
func (c *Counter) Count(text string) int {
	if c == nil || c.enc == nil {
		return Approximate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Message is one conversation turn for CountMessages.
type Message struct {
	Role    string
	Content string
}

// perMessageOverhead approximates the wrapping tokens each chat message
// costs on OpenAI-style endpoints, plus the assistant reply priming.
const perMessageOverhead = 3

// CountMessages returns the token count of a chat transcript, including
// per-message framing overhead.
func (c *Counter) CountMessages(msgs []Message) int {
	total := perMessageOverhead // reply priming
	for _, m := range msgs {
		total += perMessageOverhead
		total += c.Count(m.Role)
		total += c.Count(m.Content)
	}
	return total
}

// Approximate estimates tokens without an encoding, at the usual four
// characters per token.
func Approximate(text string) int {
	return len(text) / 4
}
