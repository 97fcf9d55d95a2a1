package nats

import (
	"testing"

	"github.com/dreschagin/event-media-fetcher/pkg/logger"
)

func TestNewNATSPublisher_RequiresURL(t *testing.T) {
	if _, err := NewNATSPublisher(Config{URL: "  "}, logger.New("error")); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher(Config{URL: "nats://127.0.0.1:1"}, logger.New("error"))
	if err == nil {
		t.Fatal("expected connection error")
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	p := &NATSPublisher{logger: logger.New("error")}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
