// Package agenttest provides a canned-JSON stub Provider for driving the
// agent pipeline end-to-end in tests without a network call.
package agenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kadirpekel/docpixie/pkg/provider"
)

// Step is one scripted Provider response: either Text or Err is set.
type Step struct {
	Text string
	Err  error
}

// Stub is a provider.Provider that replays a fixed script of responses in
// call order, regardless of whether the call was ProcessText or
// ProcessMultimodal — the agent issues its Provider calls strictly
// sequentially, so one ordered script is enough to drive any scenario.
type Stub struct {
	mu    sync.Mutex
	steps []Step
	idx   int

	// Requests records every request seen, for assertions on prompt content.
	Requests []provider.Request
}

// NewStub builds a Stub that replays steps in order.
func NewStub(steps ...Step) *Stub {
	return &Stub{steps: steps}
}

func (s *Stub) Name() string { return "stub" }

func (s *Stub) ProcessText(ctx context.Context, req provider.Request) (string, error) {
	return s.next(req)
}

func (s *Stub) ProcessMultimodal(ctx context.Context, req provider.Request) (string, error) {
	return s.next(req)
}

func (s *Stub) next(req provider.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)

	if s.idx >= len(s.steps) {
		return "", fmt.Errorf("stub: no more scripted steps (call %d)", s.idx+1)
	}
	step := s.steps[s.idx]
	s.idx++
	if step.Err != nil {
		return "", step.Err
	}
	return step.Text, nil
}

// CallCount returns the number of Provider calls made so far.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

// Repeat returns n copies of step, for scripting repeated retry attempts.
func Repeat(n int, step Step) []Step {
	out := make([]Step, n)
	for i := range out {
		out[i] = step
	}
	return out
}
