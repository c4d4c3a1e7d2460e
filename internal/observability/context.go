package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	deckIDKey    contextKey = "deck_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithDeckID adds a deck session ID to the context.
func WithDeckID(ctx context.Context, deckID string) context.Context {
	return context.WithValue(ctx, deckIDKey, deckID)
}

// DeckIDFromContext retrieves the deck session ID from context.
// Returns empty string if not present.
func DeckIDFromContext(ctx context.Context) string {
	if v := ctx.Value(deckIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
