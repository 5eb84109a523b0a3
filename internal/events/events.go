// Package events distributes document change notifications to watchers.
package events

import (
	"context"

	"github.com/facetbase/facetd/pkg/model"
)

// Event types published on the bus.
const (
	EventPut    = "put"
	EventDelete = "delete"
)

// Event describes a change to a single document.
type Event struct {
	Type       string         `json:"type"`
	Collection string         `json:"collection"`
	DocID      string         `json:"docId"`
	Document   model.Document `json:"document,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

// Handler receives events for a subscription. It must not block; slow
// consumers should buffer on their side.
type Handler func(ev Event)

// Subscription is an active watch on a collection.
type Subscription interface {
	Unsubscribe() error
}

// Bus publishes document change events and delivers them to subscribers.
type Bus interface {
	Publish(ctx context.Context, ev Event) error

	// Subscribe registers a handler for all events of a collection.
	Subscribe(collection string, h Handler) (Subscription, error)

	Close() error
}
