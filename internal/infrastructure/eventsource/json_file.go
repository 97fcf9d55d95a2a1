package eventsource

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dreschagin/event-media-fetcher/internal/domain/entity"
)

type eventRecord struct {
	Title *string `json:"title"`
	Link  string  `json:"link,omitempty"`
}

// LoadFile reads the whole events file before any processing starts.
func LoadFile(path string) ([]*entity.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a JSON array of {"title": ..., "link": ...} objects.
// Extra fields are ignored; a missing or blank title fails the whole load.
func Decode(r io.Reader) ([]*entity.Event, error) {
	var records []eventRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]*entity.Event, 0, len(records))
	for i, record := range records {
		if record.Title == nil {
			return nil, fmt.Errorf("event #%d: missing title", i)
		}
		event, err := entity.NewEvent(*record.Title, record.Link)
		if err != nil {
			return nil, fmt.Errorf("event #%d: %w", i, err)
		}
		events = append(events, event)
	}

	return events, nil
}
