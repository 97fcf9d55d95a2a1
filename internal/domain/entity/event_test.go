package entity

import (
	"errors"
	"testing"
)

func TestNewEvent(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		link     string
		wantErr  error
		wantLink bool
	}{
		{name: "with link", title: "A", link: "http://x", wantLink: true},
		{name: "without link", title: "B", link: ""},
		{name: "blank link", title: "B", link: "   "},
		{name: "blank title", title: "  ", wantErr: ErrEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := NewEvent(tt.title, tt.link)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewEvent() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEvent() error = %v", err)
			}
			if event.Title() != tt.title {
				t.Errorf("Title() = %q, want %q", event.Title(), tt.title)
			}
			if event.HasLink() != tt.wantLink {
				t.Errorf("HasLink() = %v, want %v", event.HasLink(), tt.wantLink)
			}
		})
	}
}
