package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	applicationPort "github.com/dreschagin/event-media-fetcher/internal/application/port"
)

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2024, 7, 26, 20, 0, 0, 0, time.UTC)

	err := writeHistory(&buf, []applicationPort.ArtifactMetadata{
		{RunID: "0f3c2a9e-1111", FileName: "A_img1.jpg", Status: "saved", MirrorURL: "https://bucket/A_img1.jpg", CreatedAt: created},
		{RunID: "0f3c2a9e-1111", FileName: "A_img2.jpg", Status: "failed", Error: "status 404", CreatedAt: created},
	})
	if err != nil {
		t.Fatalf("writeHistory() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", buf.String())
	}
	if !strings.Contains(lines[1], "0f3c2a9e") || strings.Contains(lines[1], "-1111") {
		t.Errorf("run id must be shortened: %q", lines[1])
	}
	if !strings.Contains(lines[2], "status 404") {
		t.Errorf("failed rows must show the error: %q", lines[2])
	}
}

func TestWriteHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeHistory(&buf, nil); err != nil {
		t.Fatalf("writeHistory() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No artifacts recorded" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRootCommand_Flags(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"events", "output", "on-search-failure"} {
		if root.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	history, _, err := root.Find([]string{"history"})
	if err != nil || history.Name() != "history" {
		t.Fatalf("history subcommand not registered: %v", err)
	}
}
