package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

type Kind string

const (
	BoardServed Kind = "board.served"
	BoardFailed Kind = "board.failed"
)

// Event records the outcome of one board request.
type Event struct {
	ID         string             `json:"id"`
	Kind       Kind               `json:"kind"`
	Station    string             `json:"station"`
	Provider   types.ProviderType `json:"provider"`
	Country    string             `json:"country"`
	Status     int                `json:"status"`
	Attempts   int                `json:"attempts"`
	DurationMs int64              `json:"durationMs"`
	Error      string             `json:"error,omitempty"`
	URL        string             `json:"url"`
	Timestamp  time.Time          `json:"timestamp"`
}

// NewBoardEvent builds an event for station; a non-nil err marks it failed.
func NewBoardEvent(station types.Station, status, attempts int, elapsed time.Duration, sourceURL string, err error) Event {
	ev := Event{
		ID:         uuid.NewString(),
		Kind:       BoardServed,
		Station:    station.Slug,
		Provider:   station.Type,
		Country:    station.Country,
		Status:     status,
		Attempts:   attempts,
		DurationMs: elapsed.Milliseconds(),
		URL:        sourceURL,
		Timestamp:  time.Now().UTC(),
	}
	if err != nil {
		ev.Kind = BoardFailed
		ev.Error = err.Error()
	}
	return ev
}

func Decode(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("decode board event: %w", err)
	}
	if ev.Kind != BoardServed && ev.Kind != BoardFailed {
		return Event{}, fmt.Errorf("decode board event: unknown kind %q", ev.Kind)
	}
	return ev, nil
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
