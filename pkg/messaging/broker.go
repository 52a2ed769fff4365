package messaging

import (
	"context"
	"fmt"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// ChangeEvent is published on a collection channel whenever a document
// in that collection is written. Subscribers re-query on receipt; the
// event itself carries no document body.
type ChangeEvent struct {
	Collection string `json:"collection"`
	OwnerID    string `json:"owner_id"`
	Op         string `json:"op"`
	DocumentID string `json:"document_id,omitempty"`
}

// Change operations
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Channel returns the pub/sub channel for one owner's view of a
// collection. Every live query subscribes to exactly one channel.
func Channel(collection, ownerID string) string {
	return fmt.Sprintf("%s:%s", collection, ownerID)
}
