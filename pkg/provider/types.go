// Package provider implements the MLLM transport abstraction: a vendor-neutral
// interface over text-only and multimodal model calls, with concrete adapters
// for OpenAI-like, Anthropic-like, and OpenRouter backends.
package provider

import "context"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type partKind int

const (
	partText partKind = iota
	partImage
)

// Part is one piece of a multimodal message: either text or an image
// reference. Exactly one of TextValue/ImageValue is meaningful for a given
// Part, selected by IsText/IsImage.
type Part struct {
	kind  partKind
	text  string
	image ImageHandle
}

// Text constructs a text Part.
func Text(s string) Part { return Part{kind: partText, text: s} }

// Image constructs an image Part from a handle the Provider will resolve
// (a file path or URL) at serialization time.
func Image(h ImageHandle) Part { return Part{kind: partImage, image: h} }

// IsText reports whether this Part carries text.
func (p Part) IsText() bool { return p.kind == partText }

// IsImage reports whether this Part carries an image reference.
func (p Part) IsImage() bool { return p.kind == partImage }

// TextValue returns the text content; valid only when IsText() is true.
func (p Part) TextValue() string { return p.text }

// ImageValue returns the image handle; valid only when IsImage() is true.
func (p Part) ImageValue() ImageHandle { return p.image }

// ImageHandle is an opaque reference to page-image bytes. Storage
// implementations produce these; Providers resolve them to vendor-specific
// inline forms (base64 data URLs, Anthropic content blocks, …).
type ImageHandle struct {
	// Path is a local filesystem path to the image. Empty if URL is set.
	Path string
	// URL is a remote location for the image. Empty if Path is set.
	URL string
	// MediaType is the MIME type, e.g. "image/png". If empty, it is sniffed
	// from the decoded bytes.
	MediaType string
}

// Message is one turn in a conversation sent to a Provider. For text-only
// calls, Parts holds a single Text part; for multimodal calls it may
// interleave text and image parts in presentation order.
type Message struct {
	Role  Role
	Parts []Part
}

// TextMessage builds a single-part text Message.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{Text(text)}}
}

// Request carries the parameters common to both Provider operations.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// StructuredOutputConfig requests schema-constrained output from Providers
// that support it (currently the OpenAI-like adapter's json_schema mode).
// Providers that don't support it ignore this and rely on prose-tolerant
// JSON extraction downstream.
type StructuredOutputConfig struct {
	// Name identifies the schema, required by some vendors' wire format.
	Name string
	// Schema is a JSON Schema document, typically produced by
	// invopop/jsonschema from a Go struct.
	Schema interface{}
}

// Provider hides wire-level differences between MLLM vendors behind two
// operations. Implementations must be safe for concurrent use by multiple
// goroutines processing independent queries: the Provider is stateless
// aside from authenticated-client state.
type Provider interface {
	// ProcessText issues a text-only completion request.
	ProcessText(ctx context.Context, req Request) (string, error)

	// ProcessMultimodal issues a completion request whose messages may
	// contain image parts.
	ProcessMultimodal(ctx context.Context, req Request) (string, error)

	// Name identifies the vendor for logging ("openai", "anthropic", "openrouter").
	Name() string
}
