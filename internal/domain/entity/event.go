package entity

import (
	"errors"
	"strings"
)

var ErrEmptyTitle = errors.New("event title is required")

// Event is a titled occurrence with an optional reference link.
type Event struct {
	title string
	link  string
}

func NewEvent(title, link string) (*Event, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}

	return &Event{
		title: title,
		link:  strings.TrimSpace(link),
	}, nil
}

func (e *Event) Title() string {
	return e.title
}

func (e *Event) Link() string {
	return e.link
}

// HasLink reports whether a screenshot should be attempted for the event.
func (e *Event) HasLink() bool {
	return e.link != ""
}
