package model

import (
	"fmt"
	"strings"
	"time"
)

// RoleSlot is one of the four fixed positions on a deck.
type RoleSlot string

const (
	SlotTeamLeader      RoleSlot = "teamLeader"
	SlotEMT1            RoleSlot = "emt1"
	SlotEMT2            RoleSlot = "emt2"
	SlotAmbulanceDriver RoleSlot = "ambulanceDriver"
)

// RoleSlots lists every slot in display order.
var RoleSlots = []RoleSlot{SlotTeamLeader, SlotEMT1, SlotEMT2, SlotAmbulanceDriver}

// ShiftKey selects the duty window a deck covers.
type ShiftKey string

const (
	ShiftDay   ShiftKey = "dayShift"
	ShiftNight ShiftKey = "nightShift"
)

// DeckKey identifies one team/shift roster, e.g. "alpha-dayShift".
type DeckKey struct {
	Team  string   `json:"team"`
	Shift ShiftKey `json:"shift"`
}

func (k DeckKey) String() string { return k.Team + "-" + string(k.Shift) }

// ParseDeckKey splits a "team-shiftKey" identifier.
func ParseDeckKey(s string) (DeckKey, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return DeckKey{}, fmt.Errorf("malformed deck key %q", s)
	}
	shift := ShiftKey(s[i+1:])
	if shift != ShiftDay && shift != ShiftNight {
		return DeckKey{}, fmt.Errorf("unknown shift key %q", s[i+1:])
	}
	return DeckKey{Team: s[:i], Shift: shift}, nil
}

// Deck is one versioned snapshot of a team's four role assignments.
// A nil map entry (or absent key) means the slot is vacant.
type Deck struct {
	Key        DeckKey                    `json:"key"`
	Index      int                        `json:"index"`
	Roles      map[RoleSlot]*ResponderRef `json:"roles"`
	CreatedAt  time.Time                  `json:"created_at"`
	ShiftStart time.Time                  `json:"shift_start"`
	ShiftEnd   time.Time                  `json:"shift_end"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// NewDeck returns an empty deck for the given roster key.
func NewDeck(key DeckKey, index int, createdAt time.Time) Deck {
	return Deck{Key: key, Index: index, Roles: make(map[RoleSlot]*ResponderRef), CreatedAt: createdAt}
}

// SlotOf returns the slot currently held by uid, if any.
func (d Deck) SlotOf(uid string) (RoleSlot, bool) {
	for _, slot := range RoleSlots {
		if ref := d.Roles[slot]; ref != nil && ref.UID == uid {
			return slot, true
		}
	}
	return "", false
}

// AssignedUIDs returns the uids occupying slots, in slot order.
func (d Deck) AssignedUIDs() []string {
	var uids []string
	for _, slot := range RoleSlots {
		if ref := d.Roles[slot]; ref != nil {
			uids = append(uids, ref.UID)
		}
	}
	return uids
}

// Clone returns a deep copy so callers can mutate freely.
func (d Deck) Clone() Deck {
	c := d
	c.Roles = make(map[RoleSlot]*ResponderRef, len(d.Roles))
	for slot, ref := range d.Roles {
		if ref != nil {
			r := *ref
			c.Roles[slot] = &r
		}
	}
	return c
}
