package queries

import (
	"errors"

	"warehouse/internal/pkg/guard"
)

var ErrGetQueueStatusQueryIsNotConstructed = errors.New(
	"GetQueueStatusQuery must be created via NewGetQueueStatusQuery constructor",
)

// GetQueueStatusQuery reports per-role queued and claimed counts.
type GetQueueStatusQuery struct {
	guard guard.ConstructorGuard
}

func NewGetQueueStatusQuery() GetQueueStatusQuery {
	return GetQueueStatusQuery{guard: guard.NewConstructorGuard()}
}

func (q GetQueueStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetQueueStatusQueryIsNotConstructed)
}
