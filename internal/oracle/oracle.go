// Package oracle talks to an external LLM to get content suggestions
// the local algorithms cannot derive. The oracle is advisory: every
// response is schema-validated, score-clamped, and filtered against the
// local catalog before anything downstream sees it, and the whole
// subsystem degrades to nothing when no provider is configured.
package oracle

import (
	"context"
	"encoding/json"
)

// Provider is the transport abstraction over one LLM backend. Consumers
// call Generate with a Request and receive structured JSON.
type Provider interface {
	// Generate sends a prompt and returns a structured response. When
	// the request carries a Schema, the provider uses its native
	// structured-output mechanism and the response Content is the
	// validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Suggestion calls are single-turn:
	// one user message carrying the learner context and candidate list.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. When nil,
	// Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0 - 1.0. Zero when not set.
	Temperature float64
}

// Message is a single conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "content-suggestions".
	Name string

	// Description tells the model what the schema represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output. Validated JSON when a Schema was
	// provided, otherwise raw text wrapped as a JSON string.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to: "end", "max_tokens", "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
