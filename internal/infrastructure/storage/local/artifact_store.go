package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStore writes artifacts as plain files under BaseDir.
type ArtifactStore struct {
	baseDir string
}

// NewArtifactStore creates baseDir if it does not exist yet.
func NewArtifactStore(baseDir string) (*ArtifactStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("output directory is not configured")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &ArtifactStore{baseDir: baseDir}, nil
}

func (s *ArtifactStore) BaseDir() string {
	return s.baseDir
}

// Save overwrites any existing file with the same name.
func (s *ArtifactStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}

	path := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	return path, nil
}
