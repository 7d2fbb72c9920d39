// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo is the vendor-neutral view of rate-limit response headers.
// Zero values mean the header was absent or unparseable.
type RateLimitInfo struct {
	// RetryAfter is an explicit wait requested by the server.
	RetryAfter time.Duration
	// ResetAt is when the exhausted quota window replenishes.
	ResetAt time.Time
	// RequestsRemaining and TokensRemaining are informational counters.
	RequestsRemaining int
	TokensRemaining   int
}

// HeaderParser extracts RateLimitInfo from one vendor's response headers.
type HeaderParser func(http.Header) RateLimitInfo

// ParseOpenAIHeaders reads the rate-limit headers of OpenAI-compatible
// endpoints (OpenAI itself, OpenRouter).
func ParseOpenAIHeaders(h http.Header) RateLimitInfo {
	info := RateLimitInfo{
		RetryAfter:        retryAfterSeconds(h.Get("Retry-After")),
		RequestsRemaining: intHeader(h, "x-ratelimit-remaining-requests"),
		TokensRemaining:   intHeader(h, "x-ratelimit-remaining-tokens"),
	}

	for _, key := range []string{"x-ratelimit-reset-requests", "x-ratelimit-reset-tokens"} {
		if v := h.Get(key); v != "" {
			if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
				info.ResetAt = time.Unix(unix, 0)
				break
			}
		}
	}
	return info
}

// ParseAnthropicHeaders reads Anthropic's anthropic-ratelimit-* headers,
// whose reset timestamps are RFC 3339 rather than unix seconds.
func ParseAnthropicHeaders(h http.Header) RateLimitInfo {
	info := RateLimitInfo{
		RetryAfter:        retryAfterSeconds(h.Get("retry-after")),
		RequestsRemaining: intHeader(h, "anthropic-ratelimit-requests-remaining"),
		TokensRemaining: intHeader(h, "anthropic-ratelimit-input-tokens-remaining") +
			intHeader(h, "anthropic-ratelimit-output-tokens-remaining"),
	}

	for _, key := range []string{
		"anthropic-ratelimit-requests-reset",
		"anthropic-ratelimit-input-tokens-reset",
		"anthropic-ratelimit-output-tokens-reset",
	} {
		if v := h.Get(key); v != "" {
			if at, err := time.Parse(time.RFC3339, v); err == nil {
				info.ResetAt = at
				break
			}
		}
	}
	return info
}

// retryAfterSeconds parses the delay-seconds form of Retry-After. The
// HTTP-date form is rare on MLLM endpoints and is ignored.
func retryAfterSeconds(v string) time.Duration {
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func intHeader(h http.Header, key string) int {
	n, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return 0
	}
	return n
}
