package ai

import (
	"context"
)

// LLMProvider defines the contract for interacting with chat completion models.
// Implementations receive the whole ordered transcript and return the assistant text.
//
// Failures are reported as *Error so callers can branch on the kind:
// transport or API failures are provider errors, a reply without any
// choices is an empty response, and anything else is unexpected.
type LLMProvider interface {
	Complete(ctx context.Context, transcript []Turn) (string, error)
}

type modelKey struct{}

// WithModel returns a context that asks the provider to use model instead of
// its configured default for calls made with it.
func WithModel(ctx context.Context, model string) context.Context {
	if model == "" {
		return ctx
	}
	return context.WithValue(ctx, modelKey{}, model)
}

// ModelFrom returns the model override stored in ctx, or def when there is none.
func ModelFrom(ctx context.Context, def string) string {
	if m, ok := ctx.Value(modelKey{}).(string); ok && m != "" {
		return m
	}
	return def
}
