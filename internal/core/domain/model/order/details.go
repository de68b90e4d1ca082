package order

import (
	"errors"
	"strings"

	"warehouse/internal/pkg/errs"
)

// DetailsUpdate is a partial edit of an order's descriptive fields.
// A nil field is left unchanged.
type DetailsUpdate struct {
	CustomerName *string
	Items        []string
	Notes        *string
}

// IsEmpty reports whether the update changes nothing.
func (u DetailsUpdate) IsEmpty() bool {
	return u.CustomerName == nil && u.Items == nil && u.Notes == nil
}

// Validate rejects empty updates and blank replacement values.
func (u DetailsUpdate) Validate() error {
	if u.IsEmpty() {
		return errs.NewValueIsRequiredErrorWithCause("update",
			errors.New("one of customer_name, items or notes is required"))
	}
	if u.CustomerName != nil && strings.TrimSpace(*u.CustomerName) == "" {
		return errs.NewValueIsRequiredError("customer_name")
	}
	if u.Items != nil {
		for _, item := range u.Items {
			if strings.TrimSpace(item) != "" {
				return nil
			}
		}
		return errs.NewValueIsRequiredErrorWithCause("items", errors.New("at least one item is required"))
	}
	return nil
}

// Normalized returns the update with the name trimmed and blank items dropped,
// the form stores write.
func (u DetailsUpdate) Normalized() DetailsUpdate {
	out := DetailsUpdate{Notes: u.Notes}
	if u.CustomerName != nil {
		name := strings.TrimSpace(*u.CustomerName)
		out.CustomerName = &name
	}
	if u.Items != nil {
		out.Items = make([]string, 0, len(u.Items))
		for _, item := range u.Items {
			if item = strings.TrimSpace(item); item != "" {
				out.Items = append(out.Items, item)
			}
		}
	}
	return out
}
