package provider

import (
	"context"
	"reflect"

	"github.com/invopop/jsonschema"
)

// SchemaFor generates a JSON Schema for a Go type, for use as a
// StructuredOutputConfig.Schema with an OpenAI-like Provider's
// response_format json_schema mode. This is a stricter alternative to the
// prose-tolerant JSON extraction the agent otherwise relies on;
// it is only exercised when the active Provider is OpenAI-like and the
// caller opts in.
func SchemaFor(name string, v interface{}) StructuredOutputConfig {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(v))
	return StructuredOutputConfig{Name: name, Schema: schema}
}

// ProcessStructured issues a text completion constrained to the given
// schema when the Provider supports it (currently OpenAI-like only);
// otherwise it falls back to a plain ProcessText call and relies on the
// caller's tolerant JSON parsing.
func ProcessStructured(ctx context.Context, p Provider, req Request, sc StructuredOutputConfig) (string, error) {
	if oa, ok := p.(*OpenAIProvider); ok {
		return oa.processStructured(ctx, req, &sc)
	}
	return p.ProcessText(ctx, req)
}
