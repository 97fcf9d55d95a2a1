package eventsource

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dreschagin/event-media-fetcher/internal/domain/entity"
)

func TestDecode(t *testing.T) {
	input := `[
		{"title": "A", "link": "http://x", "date": "2024-07-26"},
		{"title": "B"},
		{"title": "C", "link": ""}
	]`

	events, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Title() != "A" || events[0].Link() != "http://x" {
		t.Errorf("unexpected first event: %q %q", events[0].Title(), events[0].Link())
	}
	if events[1].HasLink() || events[2].HasLink() {
		t.Errorf("events without link must not report one")
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not an array", `{"title":"A"}`, "decode events"},
		{"missing title", `[{"link":"http://x"}]`, "event #0: missing title"},
		{"blank title", `[{"title":"A"},{"title":" "}]`, "event #1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	_, err := Decode(strings.NewReader(`[{"title":""}]`))
	if !errors.Is(err, entity.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(`[{"title":"巴黎奥运会开幕","link":"https://news.example/1"}]`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	events, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(events) != 1 || events[0].Title() != "巴黎奥运会开幕" {
		t.Fatalf("unexpected events: %+v", events)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
