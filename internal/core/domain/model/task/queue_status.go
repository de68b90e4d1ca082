package task

import "warehouse/internal/core/domain/model/kernel"

// Counts is the number of active tasks of one role.
type Counts struct {
	Queued  int
	Claimed int
}

// QueueStatus holds per-role counts. Every known role is present.
type QueueStatus map[kernel.Role]Counts

// NewQueueStatus returns a status with zero counts for every role.
func NewQueueStatus() QueueStatus {
	qs := make(QueueStatus, len(kernel.Roles()))
	for _, r := range kernel.Roles() {
		qs[r] = Counts{}
	}
	return qs
}

// Total sums counts across roles.
func (qs QueueStatus) Total() Counts {
	var total Counts
	for _, c := range qs {
		total.Queued += c.Queued
		total.Claimed += c.Claimed
	}
	return total
}
