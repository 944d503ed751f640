package deck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openaid/respond/core/model"
	"github.com/openaid/respond/core/store"
	"github.com/openaid/respond/infra/logger"
	"github.com/openaid/respond/infra/memstore"
)

var alphaDay = model.DeckKey{Team: "alpha", Shift: model.ShiftDay}

func newTestStore(t *testing.T, now time.Time) (*Store, *memstore.Store) {
	t.Helper()
	docs := memstore.New()
	s := NewStore(docs, nil, logger.NopLogger{},
		WithClock(func() time.Time { return now }),
		WithLocation(time.UTC))
	return s, docs
}

func TestAddDeckCapacity(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, now)
	ctx := context.Background()
	for i := 0; i < MaxDecks; i++ {
		if _, err := s.AddDeck(ctx, alphaDay); err != nil {
			t.Fatalf("deck %d: %v", i, err)
		}
	}
	if _, err := s.AddDeck(ctx, alphaDay); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded got %v", err)
	}
	if got := len(s.Decks(alphaDay)); got != MaxDecks {
		t.Fatalf("expected %d decks got %d", MaxDecks, got)
	}
}

func TestSaveStampsShiftWindowAndUpdatedAt(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, now)
	ctx := context.Background()
	if _, err := s.AddDeck(ctx, alphaDay); err != nil {
		t.Fatalf("add: %v", err)
	}
	roles := map[model.RoleSlot]*model.ResponderRef{
		model.SlotTeamLeader: {UID: "a", FullName: "Ana"},
	}
	d, err := s.Save(ctx, alphaDay, 0, roles)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	wantStart := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	if !d.ShiftStart.Equal(wantStart) || !d.ShiftEnd.Equal(wantStart.Add(12*time.Hour)) {
		t.Fatalf("unexpected window %v-%v", d.ShiftStart, d.ShiftEnd)
	}
	if !d.UpdatedAt.Equal(now) {
		t.Fatalf("updatedAt not stamped")
	}
}

func TestSaveStripsVacantSlots(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, now)
	ctx := context.Background()
	if _, err := s.AddDeck(ctx, alphaDay); err != nil {
		t.Fatalf("add: %v", err)
	}
	roles := map[model.RoleSlot]*model.ResponderRef{
		model.SlotTeamLeader: {UID: "a", FullName: "Ana"},
		model.SlotEMT1:       nil,
		model.SlotEMT2:       {UID: ""},
	}
	d, err := s.Save(ctx, alphaDay, 0, roles)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(d.Roles) != 1 {
		t.Fatalf("vacant slots must not be persisted: %+v", d.Roles)
	}
}

func TestSaveRejectsDuplicateUIDWithinDeck(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, now)
	ctx := context.Background()
	if _, err := s.AddDeck(ctx, alphaDay); err != nil {
		t.Fatalf("add: %v", err)
	}
	roles := map[model.RoleSlot]*model.ResponderRef{
		model.SlotTeamLeader: {UID: "a", FullName: "Ana"},
		model.SlotEMT1:       {UID: "a", FullName: "Ana"},
	}
	if _, err := s.Save(ctx, alphaDay, 0, roles); !errors.Is(err, ErrConflictingAssignment) {
		t.Fatalf("expected ErrConflictingAssignment got %v", err)
	}
	if len(s.Decks(alphaDay)[0].Roles) != 0 {
		t.Fatalf("rejected save must not be persisted")
	}
}

func TestSaveRejectsUIDCommittedOnAnotherRoster(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, now)
	ctx := context.Background()
	bravoNight := model.DeckKey{Team: "bravo", Shift: model.ShiftNight}
	for _, key := range []model.DeckKey{alphaDay, bravoNight} {
		if _, err := s.AddDeck(ctx, key); err != nil {
			t.Fatalf("add %s: %v", key, err)
		}
	}
	roles := map[model.RoleSlot]*model.ResponderRef{model.SlotEMT1: {UID: "a", FullName: "Ana"}}
	if _, err := s.Save(ctx, bravoNight, 0, roles); err != nil {
		t.Fatalf("save bravo: %v", err)
	}

	if _, err := s.Save(ctx, alphaDay, 0, roles); !errors.Is(err, ErrConflictingAssignment) {
		t.Fatalf("expected ErrConflictingAssignment got %v", err)
	}
	if len(s.Decks(alphaDay)[0].Roles) != 0 {
		t.Fatalf("rejected save must not be persisted")
	}

	// Moving the responder to another slot of the roster that already
	// holds them is not a conflict.
	moved := map[model.RoleSlot]*model.ResponderRef{model.SlotEMT2: {UID: "a", FullName: "Ana"}}
	if _, err := s.Save(ctx, bravoNight, 0, moved); err != nil {
		t.Fatalf("move within own roster: %v", err)
	}
}

func TestNightShiftWindowCrossesMidnight(t *testing.T) {
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	start, end := ShiftWindow(model.ShiftNight, now, time.UTC)
	if start.Hour() != 18 || end.Day() != 11 || end.Hour() != 6 {
		t.Fatalf("unexpected night window %v-%v", start, end)
	}
}

func TestRotationBoundary(t *testing.T) {
	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one second short", created.Add(24*time.Hour - time.Second), false},
		{"exactly 24h", created.Add(24 * time.Hour), true},
		{"past 24h", created.Add(25 * time.Hour), true},
	}
	for _, tc := range cases {
		s, _ := newTestStore(t, created)
		if _, err := s.AddDeck(ctx, alphaDay); err != nil {
			t.Fatalf("%s: add: %v", tc.name, err)
		}
		s.clock = func() time.Time { return tc.now }
		rotated, err := s.RotateIfExpired(ctx, alphaDay)
		if err != nil {
			t.Fatalf("%s: rotate: %v", tc.name, err)
		}
		if rotated != tc.want {
			t.Errorf("%s: rotated = %v, want %v", tc.name, rotated, tc.want)
		}
	}
}

func TestRotationDropsOldestAndAppendsFresh(t *testing.T) {
	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, created)
	ctx := context.Background()
	if _, err := s.AddDeck(ctx, alphaDay); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.clock = func() time.Time { return created.Add(12 * time.Hour) }
	if _, err := s.AddDeck(ctx, alphaDay); err != nil {
		t.Fatalf("add: %v", err)
	}

	now := created.Add(24 * time.Hour)
	s.clock = func() time.Time { return now }
	rotated, err := s.RotateIfExpired(ctx, alphaDay)
	if err != nil || !rotated {
		t.Fatalf("rotate = %v, %v", rotated, err)
	}
	decks := s.Decks(alphaDay)
	if len(decks) != 2 {
		t.Fatalf("expected 2 decks got %d", len(decks))
	}
	if !decks[0].CreatedAt.Equal(created.Add(12 * time.Hour)) {
		t.Fatalf("second deck must shift down")
	}
	if !decks[1].CreatedAt.Equal(now) {
		t.Fatalf("fresh deck must be stamped with now")
	}
}

func TestRotationIdempotent(t *testing.T) {
	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, created)
	ctx := context.Background()
	if _, err := s.AddDeck(ctx, alphaDay); err != nil {
		t.Fatalf("add: %v", err)
	}
	now := created.Add(25 * time.Hour)
	s.clock = func() time.Time { return now }
	if rotated, _ := s.RotateIfExpired(ctx, alphaDay); !rotated {
		t.Fatalf("first call must rotate")
	}
	first := s.Decks(alphaDay)
	if rotated, _ := s.RotateIfExpired(ctx, alphaDay); rotated {
		t.Fatalf("second call with no time elapsed must be a no-op")
	}
	second := s.Decks(alphaDay)
	if len(first) != len(second) {
		t.Fatalf("deck sets diverged")
	}
	for i := range first {
		if !first[i].CreatedAt.Equal(second[i].CreatedAt) {
			t.Fatalf("deck %d changed across idempotent calls", i)
		}
	}
}

func TestRotateAllCountsRotatedRosters(t *testing.T) {
	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, created)
	ctx := context.Background()
	bravoNight := model.DeckKey{Team: "bravo", Shift: model.ShiftNight}
	if _, err := s.AddDeck(ctx, alphaDay); err != nil {
		t.Fatalf("add alpha: %v", err)
	}
	s.clock = func() time.Time { return created.Add(12 * time.Hour) }
	if _, err := s.AddDeck(ctx, bravoNight); err != nil {
		t.Fatalf("add bravo: %v", err)
	}

	s.clock = func() time.Time { return created.Add(24 * time.Hour) }
	if got := s.RotateAll(ctx); got != 1 {
		t.Fatalf("expected 1 rotated roster got %d", got)
	}
	if got := s.RotateAll(ctx); got != 0 {
		t.Fatalf("repeat sweep must rotate nothing, got %d", got)
	}
}

func TestZeroCreatedAtNeverExpires(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, docs := newTestStore(t, now)
	ctx := context.Background()
	doc := rosterDoc{Key: alphaDay.String(), Decks: []model.Deck{{Key: alphaDay}}}
	if err := docs.Put(ctx, "decks", doc.Key, doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	rotated, err := s.RotateIfExpired(ctx, alphaDay)
	if err != nil || rotated {
		t.Fatalf("uninitialized deck must never rotate (rotated=%v err=%v)", rotated, err)
	}
}

func TestFailedWriteLeavesLocalStateUnchanged(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, docs := newTestStore(t, now)
	ctx := context.Background()
	if _, err := s.AddDeck(ctx, alphaDay); err != nil {
		t.Fatalf("add: %v", err)
	}
	docs.FailPuts = errors.New("store down")
	roles := map[model.RoleSlot]*model.ResponderRef{model.SlotEMT1: {UID: "b"}}
	if _, err := s.Save(ctx, alphaDay, 0, roles); !errors.Is(err, store.ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed got %v", err)
	}
	decks := s.Decks(alphaDay)
	if len(decks[0].Roles) != 0 {
		t.Fatalf("failed save must not be applied locally")
	}
}
