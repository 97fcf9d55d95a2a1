package port

import "context"

// ArtifactStore persists artifact bytes under a file name and returns the written path.
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// ArtifactMirror copies saved artifacts to a secondary store and returns a readable URL.
type ArtifactMirror interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)
}
