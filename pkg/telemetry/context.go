package telemetry

import "context"

type contextKey string

const (
	// ContextKeyTransform carries the name of the running transform.
	ContextKeyTransform contextKey = "transform"
	// ContextKeyNodeID carries the graph node a transform ran against.
	ContextKeyNodeID contextKey = "node_id"
	// ContextKeyRequestSource carries where the request originated (server, cli).
	ContextKeyRequestSource contextKey = "request_source"
)

// WithTransform tags the context with the name of the running transform.
func WithTransform(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyTransform, name)
}

// WithNodeID tags the context with the graph node being operated on.
func WithNodeID(ctx context.Context, nodeID string) context.Context {
	return context.WithValue(ctx, ContextKeyNodeID, nodeID)
}

// WithRequestSource tags the context with the origin of the request.
func WithRequestSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestSource, source)
}
