package s3

import (
	"context"
	"testing"
)

func TestArtifactMirror_PublicURL(t *testing.T) {
	tests := []struct {
		name   string
		mirror ArtifactMirror
		key    string
		want   string
	}{
		{
			name:   "path style",
			mirror: ArtifactMirror{bucket: "media", endpoint: "http://localhost:9000", usePathStyle: true},
			key:    "events/2024/07/26/A_img1.jpg",
			want:   "http://localhost:9000/media/events/2024/07/26/A_img1.jpg",
		},
		{
			name:   "virtual hosted",
			mirror: ArtifactMirror{bucket: "media", endpoint: "https://s3.eu-west-1.amazonaws.com"},
			key:    "events/Opening Ceremony_screenshot.png",
			want:   "https://media.s3.eu-west-1.amazonaws.com/events/Opening%20Ceremony_screenshot.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mirror.publicURL(tt.key); got != tt.want {
				t.Errorf("publicURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewArtifactMirror_Validation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewArtifactMirror(ctx, Config{}); err == nil {
		t.Errorf("expected error for missing bucket")
	}
	if _, err := NewArtifactMirror(ctx, Config{Bucket: "b", URLMode: "signed"}); err == nil {
		t.Errorf("expected error for unknown url mode")
	}
	if _, err := NewArtifactMirror(ctx, Config{Bucket: "b", AccessKeyID: "only-id"}); err == nil {
		t.Errorf("expected error for partial credentials")
	}
}
