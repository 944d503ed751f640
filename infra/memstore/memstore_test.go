package memstore

import (
	"context"
	"testing"

	"github.com/openaid/respond/core/store"
)

type doc struct {
	Name string `json:"name"`
}

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Put(ctx, "teams", "alpha", doc{Name: "Alpha"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out doc
	if err := s.Get(ctx, "teams", "alpha", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != "Alpha" {
		t.Fatalf("expected Alpha got %q", out.Name)
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	var out doc
	if err := s.Get(context.Background(), "teams", "nope", &out); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestSubscribeReceivesChange(t *testing.T) {
	s := New()
	ch := s.Subscribe("teams")
	if err := s.Put(context.Background(), "teams", "bravo", doc{Name: "Bravo"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	c := <-ch
	if c.ID != "bravo" || c.Doc == nil {
		t.Fatalf("unexpected change %+v", c)
	}
	s.Unsubscribe("teams", ch)
}

func TestCountAndList(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		if err := s.Put(ctx, "teams", id, doc{Name: id}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	n, err := s.Count(ctx, "teams")
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}
	docs, err := s.List(ctx, "teams")
	if err != nil || len(docs) != 3 {
		t.Fatalf("list = %d docs, %v", len(docs), err)
	}
}

func TestFailPuts(t *testing.T) {
	s := New()
	s.FailPuts = context.DeadlineExceeded
	if err := s.Put(context.Background(), "teams", "x", doc{}); err == nil {
		t.Fatalf("expected configured failure")
	}
	if n, _ := s.Count(context.Background(), "teams"); n != 0 {
		t.Fatalf("failed put must not be applied")
	}
}
