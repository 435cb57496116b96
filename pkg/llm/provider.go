// Package llm provides the language-model layer: a narrow completion
// interface, the Gemini implementation, a retrying concurrency-limited
// client, and the parsers that turn free-form completions into structured
// simulation values.
package llm

import "context"

// Options tunes a single completion request.
type Options struct {
	Temperature float32
	MaxTokens   int32
}

// Provider is the minimal surface the simulation needs from a language
// model: a prompt in, text out.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}
