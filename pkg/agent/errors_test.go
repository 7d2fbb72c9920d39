package agent

import (
	"errors"
	"testing"
)

func TestParseError(t *testing.T) {
	inner := errors.New("unexpected token")
	pe := &ParseError{Component: "classifier", Raw: "not json", Err: inner}

	if !errors.Is(pe, inner) {
		t.Error("ParseError should unwrap to its inner error")
	}
	if pe.Error() == "" {
		t.Error("Error() should not be empty")
	}
}

func TestStorageNotFoundError(t *testing.T) {
	inner := errors.New("no such document")
	se := &StorageNotFoundError{DocumentID: "d1", Err: inner}

	if !errors.Is(se, inner) {
		t.Error("StorageNotFoundError should unwrap to its inner error")
	}
}
