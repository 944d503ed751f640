package events

import (
	"time"

	"github.com/openaid/respond/core/model"
)

// DeckSavedEvent is published after a deck write completes.
type DeckSavedEvent struct {
	Key   model.DeckKey
	Index int
	At    time.Time
}

// DeckRotatedEvent is published when a roster key drops its oldest deck
// and appends a fresh one.
type DeckRotatedEvent struct {
	Key     model.DeckKey
	Dropped time.Time // createdAt of the retired deck
	At      time.Time
}
