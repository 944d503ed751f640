package assign

import (
	"testing"
	"time"

	"github.com/openaid/respond/core/model"
)

func deckWith(roles map[model.RoleSlot]string) model.Deck {
	d := model.NewDeck(model.DeckKey{Team: "alpha", Shift: model.ShiftDay}, 0, time.Time{})
	for slot, uid := range roles {
		d.Roles[slot] = &model.ResponderRef{UID: uid, FullName: uid}
	}
	return d
}

func TestAssignMoveClearsOldSlot(t *testing.T) {
	d := deckWith(map[model.RoleSlot]string{
		model.SlotTeamLeader: "A",
		model.SlotEMT1:       "B",
	})
	Assign(&d, model.SlotEMT2, model.ResponderRef{UID: "A", FullName: "A"})

	if d.Roles[model.SlotTeamLeader] != nil {
		t.Fatalf("teamLeader must be cleared by the move")
	}
	if d.Roles[model.SlotEMT1] == nil || d.Roles[model.SlotEMT1].UID != "B" {
		t.Fatalf("emt1 must be untouched")
	}
	if d.Roles[model.SlotEMT2] == nil || d.Roles[model.SlotEMT2].UID != "A" {
		t.Fatalf("emt2 must hold A")
	}
}

func TestAssignOverwritesTargetSlot(t *testing.T) {
	d := deckWith(map[model.RoleSlot]string{model.SlotEMT1: "B"})
	Assign(&d, model.SlotEMT1, model.ResponderRef{UID: "C"})
	if d.Roles[model.SlotEMT1].UID != "C" {
		t.Fatalf("last writer wins on the target slot")
	}
}

func TestAssignSameSlotIsStable(t *testing.T) {
	d := deckWith(map[model.RoleSlot]string{model.SlotEMT1: "B"})
	Assign(&d, model.SlotEMT1, model.ResponderRef{UID: "B", FullName: "Bea"})
	if got := len(d.Roles); got != 1 {
		t.Fatalf("expected 1 filled slot got %d", got)
	}
}

func TestUnassignEmptySlotIsNoop(t *testing.T) {
	d := deckWith(nil)
	Unassign(&d, model.SlotAmbulanceDriver)
	if len(d.Roles) != 0 {
		t.Fatalf("unexpected roles %+v", d.Roles)
	}
	var empty model.Deck
	Unassign(&empty, model.SlotEMT1)
}

func TestExclusionSetSkipsEditedRoster(t *testing.T) {
	alphaDay := model.DeckKey{Team: "alpha", Shift: model.ShiftDay}
	bravoNight := model.DeckKey{Team: "bravo", Shift: model.ShiftNight}
	rosters := map[string][]model.Deck{
		alphaDay.String():   {deckWith(map[model.RoleSlot]string{model.SlotTeamLeader: "A"})},
		bravoNight.String(): {deckWith(map[model.RoleSlot]string{model.SlotEMT1: "X"})},
	}

	ex := ExclusionSet(rosters, alphaDay)
	if _, ok := ex["X"]; !ok {
		t.Fatalf("X is committed on bravo-nightShift and must be excluded")
	}
	if _, ok := ex["A"]; ok {
		t.Fatalf("the edited roster's own members are not excluded")
	}

	ex = ExclusionSet(rosters, bravoNight)
	if _, ok := ex["X"]; ok {
		t.Fatalf("X must stay visible when editing its own roster")
	}
}
