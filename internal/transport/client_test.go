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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fastClient builds a Client with millisecond backoff so retry tests do not
// sleep for real.
func fastClient(opts ...Option) *Client {
	base := []Option{
		WithBaseDelay(time.Millisecond),
		WithMaxDelay(10 * time.Millisecond),
	}
	return New(append(base, opts...)...)
}

func TestDo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	resp, err := fastClient().Do(mustRequest(t, srv.URL, ""))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
}

func TestDo_NonRetryableStatusReturnsResponse(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(status)
		}))

		resp, err := fastClient().Do(mustRequest(t, srv.URL, ""))
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: Do returned error %v, want response", status, err)
		}
		resp.Body.Close()
		if resp.StatusCode != status {
			t.Errorf("status = %d, want %d", resp.StatusCode, status)
		}
		if calls != 1 {
			t.Errorf("status %d: server saw %d calls, want 1", status, calls)
		}
	}
}

func TestDo_RetriesRateLimitThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, "recovered")
	}))
	defer srv.Close()

	resp, err := fastClient(WithHeaderParser(ParseOpenAIHeaders)).Do(mustRequest(t, srv.URL, ""))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}

func TestDo_RetryBudgetExhausted(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := fastClient(WithMaxRetries(2)).Do(mustRequest(t, srv.URL, ""))
	var retryErr *RetryableError
	if !errors.As(err, &retryErr) {
		t.Fatalf("err = %v, want *RetryableError", err)
	}
	if retryErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", retryErr.StatusCode)
	}
	if retryErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", retryErr.Attempts)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}

func TestDo_ConservativeRetryStopsEarly(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Budget allows 10 retries, but ConservativeRetry gives up after its
	// own fixed cap.
	_, err := fastClient(WithMaxRetries(10)).Do(mustRequest(t, srv.URL, ""))
	var retryErr *RetryableError
	if !errors.As(err, &retryErr) {
		t.Fatalf("err = %v, want *RetryableError", err)
	}
	if calls != conservativeRetryCap+1 {
		t.Errorf("server saw %d calls, want %d", calls, conservativeRetryCap+1)
	}
}

func TestDo_ReplaysBodyOnRetry(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := fastClient().Do(mustRequest(t, srv.URL, `{"model":"gpt-4o"}`))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if len(bodies) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(bodies))
	}
	if bodies[0] != bodies[1] || bodies[1] != `{"model":"gpt-4o"}` {
		t.Errorf("bodies = %q, want identical replays", bodies)
	}
}

func TestDo_CustomStrategy(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	never := func(int) RetryStrategy { return NoRetry }
	resp, err := fastClient(WithRetryStrategy(never)).Do(mustRequest(t, srv.URL, ""))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1 with NoRetry strategy", calls)
	}
}

func TestDo_HonorsResetAtHeader(t *testing.T) {
	calls := 0
	var gap time.Duration
	var last time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		now := time.Now()
		if calls == 2 {
			gap = now.Sub(last)
		}
		last = now
		if calls == 1 {
			w.Header().Set("anthropic-ratelimit-requests-reset", now.Add(50*time.Millisecond).Format(time.RFC3339))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := fastClient(WithHeaderParser(ParseAnthropicHeaders)).Do(mustRequest(t, srv.URL, ""))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	// RFC 3339 reset stamps have second granularity, so the parsed reset
	// usually lands in the past and backoff applies instead. Either way the
	// retry must not have slept anywhere near the max delay.
	if gap > 5*time.Second {
		t.Errorf("retry waited %v, want a bounded delay", gap)
	}
}

func TestNew_Options(t *testing.T) {
	hc := &http.Client{Timeout: 7 * time.Second}
	c := New(
		WithHTTPClient(hc),
		WithMaxRetries(9),
		WithBaseDelay(3*time.Second),
		WithMaxDelay(40*time.Second),
	)
	if c.hc != hc {
		t.Error("WithHTTPClient not applied")
	}
	if c.maxRetries != 9 {
		t.Errorf("maxRetries = %d", c.maxRetries)
	}
	if c.baseDelay != 3*time.Second {
		t.Errorf("baseDelay = %v", c.baseDelay)
	}
	if c.maxDelay != 40*time.Second {
		t.Errorf("maxDelay = %v", c.maxDelay)
	}
}

func TestNew_IgnoresInvalidOptionValues(t *testing.T) {
	c := New(
		WithHTTPClient(nil),
		WithMaxRetries(-1),
		WithBaseDelay(0),
		WithRetryStrategy(nil),
	)
	if c.hc == nil || c.maxRetries != 3 || c.baseDelay != time.Second || c.strategy == nil {
		t.Error("invalid option values should leave defaults intact")
	}
}

func TestDefaultStrategy(t *testing.T) {
	tests := []struct {
		status int
		want   RetryStrategy
	}{
		{http.StatusOK, NoRetry},
		{http.StatusBadRequest, NoRetry},
		{http.StatusUnauthorized, NoRetry},
		{http.StatusTooManyRequests, SmartRetry},
		{http.StatusServiceUnavailable, SmartRetry},
		{http.StatusRequestTimeout, ConservativeRetry},
		{http.StatusInternalServerError, ConservativeRetry},
		{http.StatusBadGateway, ConservativeRetry},
		{http.StatusGatewayTimeout, ConservativeRetry},
	}
	for _, tt := range tests {
		if got := DefaultStrategy(tt.status); got != tt.want {
			t.Errorf("DefaultStrategy(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestConfigureTLS(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		tr, err := ConfigureTLS(nil)
		if err != nil || tr == nil {
			t.Fatalf("ConfigureTLS(nil) = %v, %v", tr, err)
		}
	})

	t.Run("insecure skip verify", func(t *testing.T) {
		tr, err := ConfigureTLS(&TLSConfig{InsecureSkipVerify: true})
		if err != nil {
			t.Fatalf("ConfigureTLS: %v", err)
		}
		if !tr.TLSClientConfig.InsecureSkipVerify {
			t.Error("InsecureSkipVerify not applied")
		}
	})

	t.Run("missing CA file", func(t *testing.T) {
		if _, err := ConfigureTLS(&TLSConfig{CACertificate: "/does/not/exist.pem"}); err == nil {
			t.Error("expected error for missing CA file")
		}
	})
}

func TestRetryableError_Error(t *testing.T) {
	e := &RetryableError{StatusCode: 429, Attempts: 4, RetryAfter: 2 * time.Second}
	msg := e.Error()
	for _, want := range []string{"429", "4 attempts", "2s"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !e.IsRetryable() {
		t.Error("IsRetryable() = false")
	}
}

func mustRequest(t *testing.T, url, body string) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(http.MethodPost, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	return req
}
