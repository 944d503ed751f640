package deck

import (
	"context"
	"time"

	"github.com/openaid/respond/core/events"
	"github.com/openaid/respond/core/model"
)

// RotateIfExpired retires the oldest deck of the roster when it is at
// least RotationPeriod old, shifts the remaining decks down and appends
// a fresh empty deck stamped with now. Running it again without time
// passing is a no-op. A deck with a zero createdAt is never considered
// expired.
func (s *Store) RotateIfExpired(ctx context.Context, key model.DeckKey) (bool, error) {
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	decks := s.Decks(key)
	if len(decks) == 0 {
		return false, nil
	}
	oldest := decks[0]
	if oldest.CreatedAt.IsZero() {
		return false, nil
	}
	now := s.clock()
	if now.Sub(oldest.CreatedAt) < RotationPeriod {
		return false, nil
	}

	rotated := append([]model.Deck(nil), decks[1:]...)
	fresh := model.NewDeck(key, len(rotated), now)
	fresh.UpdatedAt = now
	rotated = append(rotated, fresh)
	for i := range rotated {
		rotated[i].Index = i
	}
	if err := s.persist(ctx, key, rotated); err != nil {
		return false, err
	}
	s.log.Infof("rotated roster %s, retired deck from %s", key, oldest.CreatedAt.Format(time.RFC3339))
	if s.bus != nil {
		s.bus.Publish(events.DeckRotatedEvent{Key: key, Dropped: oldest.CreatedAt, At: now})
	}
	deckRotations.Inc()
	return true, nil
}

// RotateAll runs the rotation check over every known roster key and
// returns how many rosters rotated. Failures are logged and do not
// stop the sweep.
func (s *Store) RotateAll(ctx context.Context) int {
	rotated := 0
	for _, key := range s.Keys() {
		ok, err := s.RotateIfExpired(ctx, key)
		if err != nil {
			s.log.Errorf("rotation for %s failed: %v", key, err)
			continue
		}
		if ok {
			rotated++
		}
	}
	return rotated
}
