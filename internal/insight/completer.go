package insight

import "context"

// Request is a single text-completion request.
type Request struct {
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
}

// Completer sends a prompt to an AI text service and returns the generated
// text. Failures are *ServiceError or ErrEmptyResponse.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
