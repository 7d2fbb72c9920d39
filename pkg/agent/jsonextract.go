package agent

import (
	"encoding/json"
	"fmt"
)

// extractJSON locates the first balanced JSON value (object or array) in a
// possibly prose-wrapped MLLM response and unmarshals it into v. Every
// prompt in this package asks for a bare JSON value, but models routinely
// wrap it in a sentence or a markdown fence; callers treat any error here
// as a ParseError and fall back per their own documented default.
func extractJSON(component, raw string, v interface{}) error {
	start := -1
	var open, close byte
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			start, open, close = i, '{', '}'
		case '[':
			start, open, close = i, '[', ']'
		default:
			continue
		}
		break
	}
	if start == -1 {
		return &ParseError{Component: component, Raw: raw, Err: fmt.Errorf("no JSON value found")}
	}

	depth := 0
	inString := false
	escaped := false
	end := -1
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return &ParseError{Component: component, Raw: raw, Err: fmt.Errorf("unbalanced JSON value")}
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return &ParseError{Component: component, Raw: raw, Err: err}
	}
	return nil
}
