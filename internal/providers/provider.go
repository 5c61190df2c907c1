// Package providers implements clients for external completion APIs.
package providers

import "context"

// Completion is the result of one completion call.
// FinishReason is the API's indicator of why generation ended; callers
// classify it exactly once, at the pipeline boundary.
type Completion struct {
	FinishReason string
	Text         string
	TotalTokens  int
}

// Finish reasons reported by OpenAI-compatible endpoints.
const (
	FinishStop          = "stop"
	FinishLength        = "length"
	FinishContentFilter = "content_filter"
)

// Completer makes exactly one completion request per call. A non-nil
// error means the request never produced a classified response
// (connection failure, timeout, non-200 status).
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error)
}
