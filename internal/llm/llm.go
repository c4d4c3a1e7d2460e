// Package llm provides generative-AI providers for paper summarization and
// question answering, implemented directly on the provider HTTP APIs.
package llm

import "context"

// SummaryRequest asks for a summary of one paper. When PDF is non-empty
// the document is attached to the request and the model reads the full
// text; otherwise it works from the abstract alone.
type SummaryRequest struct {
	Title    string
	Abstract string
	PDF      []byte
}

// QuestionRequest asks a free-form question about one paper.
type QuestionRequest struct {
	Title    string
	Abstract string
	Question string
	PDF      []byte
}

// Result is the generated text plus usage accounting.
type Result struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generator produces summaries and answers. Implementations make exactly
// one API attempt per call; retrying is the caller's decision.
type Generator interface {
	// Summarize generates a card-sized summary of the paper.
	Summarize(ctx context.Context, req SummaryRequest) (*Result, error)

	// Answer answers a question about the paper.
	Answer(ctx context.Context, req QuestionRequest) (*Result, error)

	// Provider returns the provider name (e.g. "openai").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}
