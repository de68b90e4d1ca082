package order

import (
	"fmt"
	"strings"

	"warehouse/internal/pkg/errs"
)

// Status is the position of an order in the fulfillment lifecycle.
//
// Forward path (fulfillment role):
//
//	Pending -> Confirmed -> Picking -> Packed -> Shipped -> Delivered
//
// Customer exits:
//
//	Pending|Confirmed|Picking|Packed -> Cancelled
//	Delivered -> Returned
//
// Which moves are legal, and for whom, is decided by workflow.Definition;
// Status itself only knows names and milestones.
type Status int

const (
	// Unknown is the zero value and never a stored status.
	Unknown Status = iota
	Pending
	Confirmed
	Picking
	Packed
	Shipped
	Delivered
	Cancelled
	Returned
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Confirmed: "confirmed",
		Picking:   "picking",
		Packed:    "packed",
		Shipped:   "shipped",
		Delivered: "delivered",
		Cancelled: "cancelled",
		Returned:  "returned",
	}
}

// getStatusMilestones maps each status to the fulfillment milestone stamped
// the first time an order reaches it.
func getStatusMilestones() map[Status]Milestone {
	//nolint:exhaustive // Unknown has no milestone
	return map[Status]Milestone{
		Pending:   MilestonePlaced,
		Confirmed: MilestoneConfirmed,
		Picking:   MilestonePicked,
		Packed:    MilestonePacked,
		Shipped:   MilestoneShipped,
		Delivered: MilestoneDelivered,
		Cancelled: MilestoneCancelled,
		Returned:  MilestoneReturned,
	}
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Confirmed, Picking, Packed, Shipped, Delivered, Cancelled, Returned}
}

// ParseStatus converts a stored or configured name to a Status.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for status, str := range getStatusStrings() {
		if status != Unknown && str == name {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a known status", s))
}

// Validate returns an error for Unknown and out-of-range values.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the lower-case wire name, "unknown" for invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// Milestone returns the fulfillment milestone reached with this status.
func (s Status) Milestone() (Milestone, bool) {
	m, ok := getStatusMilestones()[s]
	return m, ok
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(data []byte) error {
	parsed, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
