package assign

import (
	"testing"
	"time"

	"github.com/openaid/respond/core/model"
)

func window(start, end time.Time) (*time.Time, *time.Time) { return &start, &end }

func TestAvailablePoolFiltersExcludedAndAssigned(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	responders := []model.Responder{
		{ID: "a", Status: model.StatusActive},
		{ID: "x", Status: model.StatusActive},
		{ID: "b", Status: model.StatusActive},
	}
	pool := AvailablePool(responders, map[string]struct{}{"x": {}}, []string{"b"}, now)
	if len(pool) != 1 || pool[0].ID != "a" {
		t.Fatalf("unexpected pool %+v", pool)
	}
}

func TestAvailablePoolRanksOnShiftFirst(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	offStart, offEnd := window(now.Add(2*time.Hour), now.Add(14*time.Hour))
	onStart, onEnd := window(now.Add(-time.Hour), now.Add(11*time.Hour))
	responders := []model.Responder{
		{ID: "off1", Status: model.StatusActive, ShiftStart: offStart, ShiftEnd: offEnd},
		{ID: "on", Status: model.StatusActive, ShiftStart: onStart, ShiftEnd: onEnd},
		{ID: "off2", Status: model.StatusActive, ShiftStart: offStart, ShiftEnd: offEnd},
	}
	pool := AvailablePool(responders, nil, nil, now)
	if len(pool) != 3 {
		t.Fatalf("out-of-window responders must never be dropped, got %d", len(pool))
	}
	if pool[0].ID != "on" {
		t.Fatalf("on-shift responder must rank first, got %s", pool[0].ID)
	}
	if pool[1].ID != "off1" || pool[2].ID != "off2" {
		t.Fatalf("ties must keep original order: %s, %s", pool[1].ID, pool[2].ID)
	}
}
