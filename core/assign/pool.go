package assign

import (
	"sort"
	"time"

	"github.com/openaid/respond/core/model"
	"github.com/openaid/respond/core/roster"
)

// AvailablePool returns the responders that can still be placed on the
// deck under edit: not committed on another roster and not already
// holding a slot here. Responders whose shift window contains now sort
// first; ties keep their original order. Out-of-window responders stay
// in the pool, they just rank lower.
func AvailablePool(responders []model.Responder, excluded map[string]struct{}, assignedUIDs []string, now time.Time) []model.Responder {
	assigned := make(map[string]struct{}, len(assignedUIDs))
	for _, uid := range assignedUIDs {
		assigned[uid] = struct{}{}
	}
	var pool []model.Responder
	for _, r := range responders {
		if _, ok := excluded[r.ID]; ok {
			continue
		}
		if _, ok := assigned[r.ID]; ok {
			continue
		}
		pool = append(pool, r)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		ri, rj := pool[i], pool[j]
		return roster.OnShift(&ri, now) && !roster.OnShift(&rj, now)
	})
	return pool
}
