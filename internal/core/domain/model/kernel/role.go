package kernel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a role value is missing or not one of the known roles.
var ErrUnknownRole = errors.New("unknown agent role")

// Role is the asserted role of the actor calling the service. It is parsed
// once at the transport boundary; the core never sees raw header strings.
type Role int

const (
	// RoleUnknown is the zero value and never authorizes anything.
	RoleUnknown Role = iota
	// RoleCustomer places, cancels and returns orders.
	RoleCustomer
	// RoleFulfillment works warehouse tasks: confirm, pick, pack, ship, deliver.
	RoleFulfillment
)

var roleNames = map[Role]string{
	RoleCustomer:    "customer",
	RoleFulfillment: "fulfillment",
}

// Roles lists every valid role in a stable order.
func Roles() []Role {
	return []Role{RoleCustomer, RoleFulfillment}
}

// ParseRole maps a header or config value to a Role. Matching is
// case-insensitive and ignores surrounding spaces.
func ParseRole(s string) (Role, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if name == v {
			return role, nil
		}
	}
	if v == "" {
		return RoleUnknown, fmt.Errorf("%w: role is empty", ErrUnknownRole)
	}
	return RoleUnknown, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// String returns the wire name of the role, or "unknown".
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Validate returns ErrUnknownRole for RoleUnknown and out-of-range values.
func (r Role) Validate() error {
	if _, ok := roleNames[r]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(data []byte) error {
	parsed, err := ParseRole(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
