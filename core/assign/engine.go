// Package assign implements conflict-checked role-assignment
// transitions over a single deck, plus the cross-roster exclusion rules
// that keep a responder from being booked twice.
package assign

import (
	"github.com/openaid/respond/core/model"
)

// ExclusionSet unions every uid occupying any slot of any deck that
// belongs to a roster other than the one being edited. Responders in
// the set are hidden from the editing pool, which is what enforces the
// system-wide one-slot-per-uid invariant.
func ExclusionSet(rosters map[string][]model.Deck, editing model.DeckKey) map[string]struct{} {
	excluded := make(map[string]struct{})
	editKey := editing.String()
	for key, decks := range rosters {
		if key == editKey {
			continue
		}
		for _, d := range decks {
			for _, uid := range d.AssignedUIDs() {
				excluded[uid] = struct{}{}
			}
		}
	}
	return excluded
}

// Assign places ref into the target slot of the deck. If the same uid
// already holds another slot of this deck the old slot is cleared in
// the same operation, so a drag across slots is a move, never a
// duplicate. The target slot is always overwritten.
func Assign(d *model.Deck, slot model.RoleSlot, ref model.ResponderRef) {
	if d.Roles == nil {
		d.Roles = make(map[model.RoleSlot]*model.ResponderRef)
	}
	if prev, ok := d.SlotOf(ref.UID); ok && prev != slot {
		delete(d.Roles, prev)
	}
	r := model.ResponderRef{UID: ref.UID, FullName: ref.FullName, Email: ref.Email}
	d.Roles[slot] = &r
}

// Unassign vacates the slot. Clearing an already empty slot is a no-op.
func Unassign(d *model.Deck, slot model.RoleSlot) {
	if d.Roles == nil {
		return
	}
	delete(d.Roles, slot)
}
