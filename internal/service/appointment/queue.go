package appointment

import (
	"sort"

	"github.com/medbridge/portal-api/internal/model"
)

// BuildQueue orders a doctor's pending appointments by acuity: risk
// level descending, then requested_at ascending so nobody starves within
// a tier. The sort is stable; equal-key entries keep their input order
// across repeated calls. The input slice is not modified.
func BuildQueue(appointments []*model.Appointment) []*model.Appointment {
	queue := make([]*model.Appointment, len(appointments))
	copy(queue, appointments)

	sort.SliceStable(queue, func(i, j int) bool {
		ri, rj := queue[i].Level.Rank(), queue[j].Level.Rank()
		if ri != rj {
			return ri > rj
		}
		return queue[i].RequestedAt.Before(queue[j].RequestedAt)
	})

	return queue
}
