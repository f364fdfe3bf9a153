package context

import "context"

type contextKey string

const (
	requestIDKey contextKey = "observability_request_id"
	emailHashKey contextKey = "observability_email_hash"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithEmailHash stores the hashed requester email; raw addresses never enter the context.
func WithEmailHash(ctx context.Context, emailHash string) context.Context {
	if ctx == nil || emailHash == "" {
		return ctx
	}
	return context.WithValue(ctx, emailHashKey, emailHash)
}

func EmailHashFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(emailHashKey).(string)
	return value
}
