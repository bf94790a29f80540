// Package events fans out collection change events to out-of-process
// consumers. The in-process changefeed lives in the store package; this
// package only mirrors mutations onto a message broker.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Operations carried by a ChangeEvent.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ChangeEvent is a lightweight notification that a document changed.
// Consumers are expected to re-fetch the document; the event carries no
// payload so it can never go stale.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	DocID      string    `json:"doc_id"`
	UserID     string    `json:"user_id"`
	At         time.Time `json:"at"`
}

// NewChangeEvent builds a ChangeEvent stamped with the current time.
func NewChangeEvent(collection, op, docID, userID string) ChangeEvent {
	return ChangeEvent{
		Collection: collection,
		Op:         op,
		DocID:      docID,
		UserID:     userID,
		At:         time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes an event from JSON bytes.
func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}

// Publisher delivers change events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	Close() error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ChangeEvent) error { return nil }
func (nopPublisher) Close() error                               { return nil }

// Nop returns a Publisher that discards every event. Used when no broker
// is configured and in tests.
func Nop() Publisher { return nopPublisher{} }
