package sketch

import "context"

// Backend converts a single image into a sketch. Implementations may call an
// AI provider or render locally; the engine makes no assumption beyond "it
// eventually returns or fails". The item carries its assigned variation seed.
type Backend interface {
	Convert(ctx context.Context, item Item, style Style, opts Options) (*Artifact, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, item Item, style Style, opts Options) (*Artifact, error)

func (f BackendFunc) Convert(ctx context.Context, item Item, style Style, opts Options) (*Artifact, error) {
	return f(ctx, item, style, opts)
}
