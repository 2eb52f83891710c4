package benefit

import (
	"sort"
	"strings"
)

// ComboSeparator joins member names into the default name of a composite.
const ComboSeparator = " + "

// Combo describes one composite strategy. An empty Target merges two or more
// existing strategies under the joined member names; a non-empty Target
// defines a new named strategy from one or more members.
type Combo struct {
	Target  string   `json:"target,omitempty"`
	Members []string `json:"members"`
}

// NewCombo validates a combination at construction time.
func NewCombo(target string, members ...string) (Combo, error) {
	c := Combo{Target: strings.TrimSpace(target), Members: clone(members)}
	if err := c.Validate(); err != nil {
		return Combo{}, err
	}
	return c, nil
}

func (c Combo) Validate() error {
	if len(c.Members) == 0 {
		return invalid("combo", "no member strategies")
	}
	seen := make(map[string]bool, len(c.Members))
	for _, m := range c.Members {
		if strings.TrimSpace(m) == "" {
			return invalid("combo", "blank member name")
		}
		if seen[m] {
			return invalid("combo", "member %q listed twice", m)
		}
		seen[m] = true
	}
	if c.Target == "" && len(c.Members) < 2 {
		return invalid("combo", "merging needs at least two distinct strategies")
	}
	return nil
}

// Name is the row name the composite is stored under.
func (c Combo) Name() string {
	if c.Target != "" {
		return c.Target
	}
	return strings.Join(c.Members, ComboSeparator)
}

// Composites records, for every composite created so far, the sorted set of
// atomic strategies it ultimately references. It is a value: Combine returns
// an extended copy and never mutates its input.
type Composites map[string][]string

// Atoms resolves a strategy to its atomic constituents. A strategy that was
// never combined is its own atom.
func (c Composites) Atoms(name string) []string {
	if atoms, ok := c[name]; ok {
		return atoms
	}
	return []string{name}
}

func (c Composites) with(name string, atoms []string) Composites {
	out := make(Composites, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[name] = atoms
	return out
}

// Merge combines at least two existing strategies into one composite named by
// joining the members with " + ".
func Merge(m *Matrix, costs CostVector, reg Composites, members ...string) (*Matrix, CostVector, Composites, error) {
	c, err := NewCombo("", members...)
	if err != nil {
		return nil, CostVector{}, nil, err
	}
	return Combine(m, costs, reg, c)
}

// Define adds a new named strategy built from existing rows.
func Define(m *Matrix, costs CostVector, reg Composites, target string, members ...string) (*Matrix, CostVector, Composites, error) {
	if strings.TrimSpace(target) == "" {
		return nil, CostVector{}, nil, invalid("combo", "target name required")
	}
	c, err := NewCombo(target, members...)
	if err != nil {
		return nil, CostVector{}, nil, err
	}
	return Combine(m, costs, reg, c)
}

// Combine appends the composite described by c. Its coverage is the
// columnwise maximum of the member rows; its cost is the sum over the
// deduplicated union of atomic strategies the members reference, so an atomic
// strategy shared between members is only paid for once.
//
// When c names a row that already exists, no row is appended: the row is
// registered as a composite of the members and repriced to the atom sum.
func Combine(m *Matrix, costs CostVector, reg Composites, c Combo) (*Matrix, CostVector, Composites, error) {
	if err := c.Validate(); err != nil {
		return nil, CostVector{}, nil, err
	}

	rows := make([]int, len(c.Members))
	for k, name := range c.Members {
		i, ok := m.strategyIdx[name]
		if !ok {
			return nil, CostVector{}, nil, unknownStrategy(name, m.strategies)
		}
		if _, ok := costs.Get(name); !ok {
			return nil, CostVector{}, nil, unknownStrategy(name, costs.names)
		}
		rows[k] = i
	}

	name := c.Name()
	if _, ok := reg[name]; ok {
		return nil, CostVector{}, nil, invalid("combo", "composite %q already defined", name)
	}
	for _, member := range c.Members {
		if member == name {
			return nil, CostVector{}, nil, invalid("combo", "strategy %q cannot be composed of itself", name)
		}
	}

	atomSet := make(map[string]bool)
	for _, member := range c.Members {
		for _, a := range reg.Atoms(member) {
			atomSet[a] = true
		}
	}
	atoms := make([]string, 0, len(atomSet))
	for a := range atomSet {
		atoms = append(atoms, a)
	}
	sort.Strings(atoms)

	var cost float64
	for _, a := range atoms {
		v, ok := costs.Get(a)
		if !ok {
			return nil, CostVector{}, nil, unknownStrategy(a, costs.names)
		}
		cost += v
	}

	// An existing row keeps its observed scores and only takes the
	// composite's atoms and cost.
	if _, exists := m.strategyIdx[name]; exists {
		ci, ok := costs.index[name]
		if !ok {
			return nil, CostVector{}, nil, unknownStrategy(name, costs.names)
		}
		return m, costs.set(ci, cost), reg.with(name, atoms), nil
	}

	cols := m.Cols()
	row := make([]float64, cols)
	for j := 0; j < cols; j++ {
		best := m.At(rows[0], j)
		for _, i := range rows[1:] {
			if v := m.At(i, j); v > best {
				best = v
			}
		}
		row[j] = best
	}

	strategies := append(clone(m.strategies), name)
	values := append(clone(m.values), row...)
	combined, err := newMatrix(strategies, clone(m.species), values)
	if err != nil {
		return nil, CostVector{}, nil, err
	}
	combined.warnings = m.warnings

	return combined, costs.with(name, cost), reg.with(name, atoms), nil
}

// ApplyCombos applies combos in order with a fresh registry, so a later combo
// may reference a composite created by an earlier one.
func ApplyCombos(m *Matrix, costs CostVector, combos []Combo) (*Matrix, CostVector, Composites, error) {
	reg := Composites{}
	var err error
	for _, c := range combos {
		m, costs, reg, err = Combine(m, costs, reg, c)
		if err != nil {
			return nil, CostVector{}, nil, err
		}
	}
	return m, costs, reg, nil
}
