package ports

import "context"

// CompletionClient is the single capability the rationale generator may
// consume from an external text-generation service. Implementations fail
// with an EXTERNAL_SERVICE_ERROR application error on network, auth, or
// malformed-response conditions; callers must catch it and degrade, never
// propagate it past the row.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}
