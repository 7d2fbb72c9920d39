package agent

import "fmt"

// ParseError indicates an MLLM response did not conform to the expected
// JSON schema for the calling component. Every component defines its own
// fallback when this occurs; a ParseError is never fatal to the
// pipeline.
type ParseError struct {
	Component string
	Raw       string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %v", e.Component, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageNotFoundError wraps a docset.NotFoundError encountered while
// resolving a task's assigned document. The task is marked failed; the
// planner may append a replacement task.
type StorageNotFoundError struct {
	DocumentID string
	Err        error
}

func (e *StorageNotFoundError) Error() string {
	return fmt.Sprintf("document %q not found: %v", e.DocumentID, e.Err)
}

func (e *StorageNotFoundError) Unwrap() error { return e.Err }

// CanceledError indicates the caller's cancellation signal interrupted the
// pipeline before it reached synthesis.
type CanceledError struct {
	Stage string
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("query canceled during %s", e.Stage)
}
