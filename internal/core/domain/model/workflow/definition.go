package workflow

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownTransition is returned when a transition is not defined for the order's current status.
	ErrUnknownTransition = errors.New("unknown transition")

	// ErrPermissionDenied is returned when the acting role does not own the transition.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidDefinition is returned by Load for documents that break the workflow rules.
	ErrInvalidDefinition = errors.New("invalid workflow definition")
)

//go:embed workflow.yaml
var defaultDocument []byte

// TransitionName identifies a transition, e.g. "confirm" or "cancel".
type TransitionName string

func (n TransitionName) String() string { return string(n) }

// Transition is one resolved edge of the state machine.
type Transition struct {
	Name         TransitionName
	From         order.Status
	To           order.Status
	RequiredRole kernel.Role
}

// Authorize returns ErrPermissionDenied unless role owns the transition.
func (t Transition) Authorize(role kernel.Role) error {
	if role != t.RequiredRole {
		return fmt.Errorf("%w: %q requires role %s, got %s", ErrPermissionDenied, t.Name, t.RequiredRole, role)
	}
	return nil
}

// Definition is an immutable state machine.
type Definition struct {
	initial  order.Status
	states   []order.Status
	terminal map[order.Status]bool
	edges    map[order.Status]map[TransitionName]Transition
}

type document struct {
	Initial     string               `yaml:"initial"`
	Terminal    []string             `yaml:"terminal"`
	States      []string             `yaml:"states"`
	Transitions []transitionDocument `yaml:"transitions"`
}

type transitionDocument struct {
	Name string   `yaml:"name"`
	From []string `yaml:"from"`
	To   string   `yaml:"to"`
	Role string   `yaml:"role"`
}

// Default loads the embedded order fulfillment workflow.
func Default() (*Definition, error) {
	return Load(defaultDocument)
}

// Load parses and validates a YAML workflow document.
func Load(data []byte) (*Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	def, err := build(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return def, nil
}

func build(doc document) (*Definition, error) {
	def := &Definition{
		terminal: make(map[order.Status]bool),
		edges:    make(map[order.Status]map[TransitionName]Transition),
	}

	known := make(map[order.Status]bool)
	for _, name := range doc.States {
		s, err := order.ParseStatus(name)
		if err != nil {
			return nil, err
		}
		if known[s] {
			return nil, fmt.Errorf("state %q listed twice", name)
		}
		known[s] = true
		def.states = append(def.states, s)
	}
	if len(def.states) == 0 {
		return nil, errors.New("no states defined")
	}

	parseKnown := func(name string) (order.Status, error) {
		s, err := order.ParseStatus(name)
		if err != nil {
			return order.Unknown, err
		}
		if !known[s] {
			return order.Unknown, fmt.Errorf("state %q is not listed in states", name)
		}
		return s, nil
	}

	initial, err := parseKnown(doc.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial: %w", err)
	}
	def.initial = initial

	for _, name := range doc.Terminal {
		s, err := parseKnown(name)
		if err != nil {
			return nil, fmt.Errorf("terminal: %w", err)
		}
		def.terminal[s] = true
	}

	targets := make(map[TransitionName]Transition)
	for _, td := range doc.Transitions {
		name := TransitionName(strings.TrimSpace(td.Name))
		if name == "" {
			return nil, errors.New("transition without a name")
		}
		to, err := parseKnown(td.To)
		if err != nil {
			return nil, fmt.Errorf("transition %q: %w", name, err)
		}
		role, err := kernel.ParseRole(td.Role)
		if err != nil {
			return nil, fmt.Errorf("transition %q: %w", name, err)
		}
		if seen, ok := targets[name]; ok && (seen.To != to || seen.RequiredRole != role) {
			return nil, fmt.Errorf("transition %q is declared with different targets or roles", name)
		}
		targets[name] = Transition{Name: name, To: to, RequiredRole: role}
		if len(td.From) == 0 {
			return nil, fmt.Errorf("transition %q has no source states", name)
		}
		for _, fromName := range td.From {
			from, err := parseKnown(fromName)
			if err != nil {
				return nil, fmt.Errorf("transition %q: %w", name, err)
			}
			if def.terminal[from] && role == kernel.RoleFulfillment {
				return nil, fmt.Errorf("fulfillment transition %q leaves terminal state %s", name, from)
			}
			if def.edges[from] == nil {
				def.edges[from] = make(map[TransitionName]Transition)
			}
			if _, dup := def.edges[from][name]; dup {
				return nil, fmt.Errorf("transition %q defined twice for %s", name, from)
			}
			def.edges[from][name] = Transition{Name: name, From: from, To: to, RequiredRole: role}
		}
	}

	for from, out := range def.edges {
		owned := 0
		for _, t := range out {
			if t.RequiredRole == kernel.RoleFulfillment {
				owned++
			}
		}
		if owned > 1 {
			return nil, fmt.Errorf("state %s has %d fulfillment transitions, at most one is allowed", from, owned)
		}
	}

	return def, nil
}

// Initial returns the status new orders start in.
func (d *Definition) Initial() order.Status { return d.initial }

// States returns every status of the workflow in document order.
func (d *Definition) States() []order.Status { return slices.Clone(d.states) }

// IsTerminal reports whether status ends the fulfillment lifecycle. A
// terminal status never queues work; only customer transitions may leave it.
func (d *Definition) IsTerminal(status order.Status) bool { return d.terminal[status] }

// Contains reports whether status is part of the workflow.
func (d *Definition) Contains(status order.Status) bool {
	return slices.Contains(d.states, status)
}

// LegalTransitions lists the transitions available from status, sorted by
// name. It is empty for unknown statuses and for terminal statuses without
// customer exits.
func (d *Definition) LegalTransitions(status order.Status) []TransitionName {
	out := d.edges[status]
	names := make([]TransitionName, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve finds the transition called name leaving status.
func (d *Definition) Resolve(status order.Status, name TransitionName) (Transition, error) {
	t, ok := d.edges[status][name]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %q is not defined for status %s", ErrUnknownTransition, name, status)
	}
	return t, nil
}

// RequiresAgentAction returns the fulfillment-owned transition leaving
// status, if any. Its presence means an agent task has to be queued once
// an order reaches status.
func (d *Definition) RequiresAgentAction(status order.Status) (Transition, bool) {
	for _, t := range d.edges[status] {
		if t.RequiredRole == kernel.RoleFulfillment {
			return t, true
		}
	}
	return Transition{}, false
}

// Transitions returns every edge, ordered by source status then name.
func (d *Definition) Transitions() []Transition {
	var all []Transition
	for _, out := range d.edges {
		for _, t := range out {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].From != all[j].From {
			return all[i].From < all[j].From
		}
		return all[i].Name < all[j].Name
	})
	return all
}
