package events

import (
	"context"
	"encoding/json"

	"github.com/go-stomp/stomp/v3"
	"github.com/go-stomp/stomp/v3/frame"
)

type stompSender interface {
	Send(destination, contentType string, body []byte, opts ...func(*frame.Frame) error) error
	Disconnect() error
}

// StompPublisher sends events to a STOMP destination.
type StompPublisher struct {
	conn        stompSender
	destination string
}

func NewStompPublisher(conn *stomp.Conn, destination string) *StompPublisher {
	return &StompPublisher{conn: conn, destination: destination}
}

func (p *StompPublisher) Publish(_ context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Send(p.destination, "application/json", body,
		stomp.SendOpt.Header("event-id", ev.ID),
		stomp.SendOpt.Header("event-kind", string(ev.Kind)),
	)
}

func (p *StompPublisher) Close() error {
	return p.conn.Disconnect()
}
