package logging

import "context"

type contextKey string

const docPathKey contextKey = "doc"

// WithDocPath adds the path of the document being operated on to the
// context, so every log event emitted during that operation carries it.
func WithDocPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, docPathKey, path)
}

// GetDocPath retrieves the document path from the context.
// Returns empty string if not present.
func GetDocPath(ctx context.Context) string {
	if p, ok := ctx.Value(docPathKey).(string); ok {
		return p
	}
	return ""
}
