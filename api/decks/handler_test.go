package decks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openaid/respond/core/deck"
	"github.com/openaid/respond/core/model"
	"github.com/openaid/respond/core/roster"
	"github.com/openaid/respond/infra/logger"
	"github.com/openaid/respond/infra/memstore"
)

var deckNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) (*deck.Store, *roster.Directory) {
	t.Helper()
	decks := deck.NewStore(memstore.New(), nil, logger.NopLogger{},
		deck.WithClock(func() time.Time { return deckNow }),
		deck.WithLocation(time.UTC))
	dir := roster.NewDirectory(logger.NopLogger{})
	dir.Replace([]model.Responder{
		{ID: "a", FullName: "A", Status: model.StatusActive},
		{ID: "x", FullName: "X", Status: model.StatusActive},
	})
	return decks, dir
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAddDeckUntilCapacity(t *testing.T) {
	decks, _ := newFixture(t)
	h := NewAddHandler(decks, "")
	for i := 0; i < deck.MaxDecks; i++ {
		rec := do(h, http.MethodPost, "/api/decks", `{"key":"alpha-dayShift"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add %d returned %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	rec := do(h, http.MethodPost, "/api/decks", `{"key":"alpha-dayShift"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("fourth deck returned %d, want 409", rec.Code)
	}
}

func TestSaveAndList(t *testing.T) {
	decks, _ := newFixture(t)
	key := model.DeckKey{Team: "alpha", Shift: model.ShiftDay}
	if _, err := decks.AddDeck(context.Background(), key); err != nil {
		t.Fatalf("add deck: %v", err)
	}

	rec := do(NewSaveHandler(decks, ""), http.MethodPut, "/api/decks",
		`{"key":"alpha-dayShift","index":0,"roles":{"teamLeader":{"uid":"a","full_name":"A"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(NewListHandler(decks, ""), http.MethodGet, "/api/decks?key=alpha-dayShift", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	var list []model.Deck
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Roles[model.SlotTeamLeader].UID != "a" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestSaveDuplicateUIDRejected(t *testing.T) {
	decks, _ := newFixture(t)
	key := model.DeckKey{Team: "alpha", Shift: model.ShiftDay}
	if _, err := decks.AddDeck(context.Background(), key); err != nil {
		t.Fatalf("add deck: %v", err)
	}
	rec := do(NewSaveHandler(decks, ""), http.MethodPut, "/api/decks",
		`{"key":"alpha-dayShift","index":0,"roles":{"teamLeader":{"uid":"a"},"emt1":{"uid":"a"}}}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decks.Decks(key); len(got[0].Roles) != 0 {
		t.Fatalf("rejected save must not be persisted: %+v", got[0].Roles)
	}
}

func TestSaveCrossRosterUIDRejected(t *testing.T) {
	decks, _ := newFixture(t)
	ctx := context.Background()
	alpha := model.DeckKey{Team: "alpha", Shift: model.ShiftDay}
	bravo := model.DeckKey{Team: "bravo", Shift: model.ShiftNight}
	for _, key := range []model.DeckKey{alpha, bravo} {
		if _, err := decks.AddDeck(ctx, key); err != nil {
			t.Fatalf("add deck: %v", err)
		}
	}
	roles := map[model.RoleSlot]*model.ResponderRef{model.SlotEMT1: {UID: "x", FullName: "X"}}
	if _, err := decks.Save(ctx, bravo, 0, roles); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := do(NewSaveHandler(decks, ""), http.MethodPut, "/api/decks",
		`{"key":"alpha-dayShift","index":0,"roles":{"emt2":{"uid":"x","full_name":"X"}}}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSaveBadKeyRejected(t *testing.T) {
	decks, _ := newFixture(t)
	rec := do(NewSaveHandler(decks, ""), http.MethodPut, "/api/decks",
		`{"key":"nodash","index":0,"roles":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPoolExcludesCrossRosterAssignments(t *testing.T) {
	decks, dir := newFixture(t)
	ctx := context.Background()
	alpha := model.DeckKey{Team: "alpha", Shift: model.ShiftDay}
	bravo := model.DeckKey{Team: "bravo", Shift: model.ShiftNight}
	for _, key := range []model.DeckKey{alpha, bravo} {
		if _, err := decks.AddDeck(ctx, key); err != nil {
			t.Fatalf("add deck: %v", err)
		}
	}
	roles := map[model.RoleSlot]*model.ResponderRef{model.SlotEMT1: {UID: "x", FullName: "X"}}
	if _, err := decks.Save(ctx, bravo, 0, roles); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := do(NewPoolHandler(decks, dir, ""), http.MethodGet, "/api/decks/pool?key=alpha-dayShift&index=0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pool returned %d: %s", rec.Code, rec.Body.String())
	}
	var pool []model.Responder
	if err := json.Unmarshal(rec.Body.Bytes(), &pool); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, r := range pool {
		if r.ID == "x" {
			t.Fatalf("x is committed on bravo-nightShift and must be excluded")
		}
	}
	if len(pool) != 1 || pool[0].ID != "a" {
		t.Fatalf("unexpected pool %+v", pool)
	}
}

func TestRotateSweepsExpiredRosters(t *testing.T) {
	now := deckNow
	decks := deck.NewStore(memstore.New(), nil, logger.NopLogger{},
		deck.WithClock(func() time.Time { return now }),
		deck.WithLocation(time.UTC))
	if _, err := decks.AddDeck(context.Background(), model.DeckKey{Team: "alpha", Shift: model.ShiftDay}); err != nil {
		t.Fatalf("add deck: %v", err)
	}

	now = deckNow.Add(24 * time.Hour)
	h := NewRotateHandler(decks, "")
	rec := do(h, http.MethodPost, "/api/decks/rotate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("rotate returned %d: %s", rec.Code, rec.Body.String())
	}
	var res RotateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Rosters != 1 || res.Rotated != 1 {
		t.Fatalf("unexpected sweep result %+v", res)
	}

	rec = do(h, http.MethodPost, "/api/decks/rotate", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Rotated != 0 {
		t.Fatalf("repeat sweep must rotate nothing, got %+v", res)
	}
}

func TestBearerToken(t *testing.T) {
	decks, _ := newFixture(t)
	rec := do(NewListHandler(decks, "secret"), http.MethodGet, "/api/decks", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
