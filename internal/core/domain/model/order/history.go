package order

import (
	"time"

	"warehouse/internal/core/domain/model/kernel"
)

// Milestone names a fulfillment checkpoint recorded on the order's timeline.
type Milestone string

const (
	MilestonePlaced    Milestone = "placed"
	MilestoneConfirmed Milestone = "confirmed"
	MilestonePicked    Milestone = "picked"
	MilestonePacked    Milestone = "packed"
	MilestoneShipped   Milestone = "shipped"
	MilestoneDelivered Milestone = "delivered"
	MilestoneCancelled Milestone = "cancelled"
	MilestoneReturned  Milestone = "returned"
)

// AllMilestones lists milestones in the order they are normally reached.
func AllMilestones() []Milestone {
	return []Milestone{
		MilestonePlaced, MilestoneConfirmed, MilestonePicked, MilestonePacked,
		MilestoneShipped, MilestoneDelivered, MilestoneCancelled, MilestoneReturned,
	}
}

// IsValid reports whether m is one of the known milestones.
func (m Milestone) IsValid() bool {
	for _, known := range AllMilestones() {
		if m == known {
			return true
		}
	}
	return false
}

// StatusChange is one append-only entry of an order's status history.
type StatusChange struct {
	Status    Status
	At        time.Time
	Notes     string
	ActorRole kernel.Role
}

// Milestones maps a milestone to the first time the order reached it.
// Missing keys mean the milestone was never reached.
type Milestones map[Milestone]time.Time

// Clone returns an independent copy.
func (m Milestones) Clone() Milestones {
	out := make(Milestones, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// stampFirst records at for milestone unless it was already reached.
func (m Milestones) stampFirst(milestone Milestone, at time.Time) {
	if _, ok := m[milestone]; ok {
		return
	}
	m[milestone] = at
}
