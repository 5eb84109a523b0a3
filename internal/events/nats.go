package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// natsConnectFunc allows test injection
var natsConnectFunc = nats.Connect

// SetNatsConnectFunc sets the natsConnectFunc for testing.
func SetNatsConnectFunc(f func(string, ...nats.Option) (*nats.Conn, error)) {
	natsConnectFunc = f
}

// natsBus carries events over a NATS server so that watchers on other
// nodes see changes made here. Events are JSON on the subject
// "facetd.events.<collection>".
type natsBus struct {
	conn *nats.Conn
}

// NewNATSBus connects to the NATS server at url. An empty url means the
// default local server.
func NewNATSBus(url string) (Bus, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := natsConnectFunc(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &natsBus{conn: nc}, nil
}

func subject(collection string) string {
	return "facetd.events." + collection
}

func (b *natsBus) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.conn.Publish(subject(ev.Collection), data)
}

func (b *natsBus) Subscribe(collection string, h Handler) (Subscription, error) {
	sub, err := b.conn.Subscribe(subject(collection), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		h(ev)
	})
	if err != nil {
		return nil, err
	}
	return &natsSub{sub: sub}, nil
}

func (b *natsBus) Close() error {
	if b.conn != nil {
		b.conn.Close()
	}
	return nil
}

type natsSub struct {
	sub *nats.Subscription
}

func (s *natsSub) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
