// Package store defines the document directory service the coordination
// core reads and writes through. Records are JSON documents keyed by
// collection and string id, with a change-subscription feed.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names used by the coordination core.
const (
	Responders = "responders"
	Decks      = "decks"
	Incidents  = "incidents"
)

// ErrNotFound is returned when no document exists for the given id.
var ErrNotFound = errors.New("document not found")

// ErrWriteFailed wraps failures of the remote directory service. The
// triggering operation is left unapplied locally; callers may retry.
var ErrWriteFailed = errors.New("remote write failed")

// Change describes one mutation on a collection. Doc is nil when the
// document was deleted.
type Change struct {
	Collection string
	ID         string
	Doc        json.RawMessage
}

// DocumentStore provides CRUD plus change subscription over JSON
// documents. Writes either complete or return an error; callers must
// not infer success without an explicit confirmation.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string, out any) error
	Put(ctx context.Context, collection, id string, doc any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
	Count(ctx context.Context, collection string) (int, error)
	// Subscribe returns a feed of changes for one collection. Delivery
	// is non-blocking; slow consumers miss intermediate states and
	// re-read the latest snapshot instead.
	Subscribe(collection string) <-chan Change
	Unsubscribe(collection string, sub <-chan Change)
}
