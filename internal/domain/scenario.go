package domain

import "fmt"

// ScenarioID identifies one forecast year, e.g. "2030".
type ScenarioID string

// Scenario is a registered forecast year and the directory holding its tables.
type Scenario struct {
	ID    ScenarioID `json:"id"`
	Label string     `json:"label"`
	Dir   string     `json:"-"`
}

// Registry is the closed set of scenarios the dashboard can show, in
// registration order. The first entry is the default selection.
type Registry struct {
	order []ScenarioID
	byID  map[ScenarioID]Scenario
}

// NewRegistry builds a registry. Scenario ids must be unique and non-empty;
// an empty Dir defaults to the id and an empty Label to the id.
func NewRegistry(scenarios ...Scenario) (*Registry, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenario registry is empty")
	}
	r := &Registry{byID: make(map[ScenarioID]Scenario, len(scenarios))}
	for _, s := range scenarios {
		if s.ID == "" {
			return nil, fmt.Errorf("scenario id must not be empty")
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario id %q", s.ID)
		}
		if s.Dir == "" {
			s.Dir = string(s.ID)
		}
		if s.Label == "" {
			s.Label = string(s.ID)
		}
		r.order = append(r.order, s.ID)
		r.byID[s.ID] = s
	}
	return r, nil
}

// DefaultRegistry returns the three scenario years shipped with the dashboard.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Scenario{ID: "2017"},
		Scenario{ID: "2030"},
		Scenario{ID: "2050"},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the scenario registered under id.
func (r *Registry) Lookup(id ScenarioID) (Scenario, error) {
	s, ok := r.byID[id]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	return s, nil
}

// Scenarios lists every registered scenario in registration order.
func (r *Registry) Scenarios() []Scenario {
	out := make([]Scenario, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Default is the scenario selected when the user has not chosen one.
func (r *Registry) Default() Scenario {
	return r.byID[r.order[0]]
}
