// Package ilp describes binary integer programs and solves them.
//
// A Model is a maximisation over 0/1 variables subject to linear
// constraints. The Solver interface is the only thing the optimisation
// pipeline depends on; BranchAndBound is the engine shipped with the service.
package ilp

import (
	"fmt"
	"math"
)

// Sense is the relation of a constraint's left-hand side to its right-hand side.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Term is one coefficient * variable product.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Bounder is a problem-specific upper bound on the objective of any feasible
// completion of a partial assignment. fix[v] is 1 or 0 for fixed variables
// and -1 for free ones. A Bounder must never underestimate.
type Bounder interface {
	Bound(fix []int8) float64
}

// Model is a binary program: maximise sum(Objective[v] * x[v]) over x in {0,1}.
type Model struct {
	names       []string
	objective   []float64
	priority    []int
	constraints []Constraint

	start   []bool
	bounder Bounder
}

func NewModel() *Model { return &Model{} }

// AddVar declares a binary variable and returns its index.
func (m *Model) AddVar(name string, objective float64) int {
	m.names = append(m.names, name)
	m.objective = append(m.objective, objective)
	m.priority = append(m.priority, 0)
	return len(m.names) - 1
}

// SetPriority orders branching: free variables with a higher priority are
// branched on first. Variables default to priority 0.
func (m *Model) SetPriority(v, p int) { m.priority[v] = p }

// SetStart hands the solver a candidate solution. It is used as the first
// incumbent when it is feasible and ignored otherwise.
func (m *Model) SetStart(x []bool) { m.start = append([]bool(nil), x...) }

// SetBounder attaches a problem-specific bound used alongside the LP and
// combinatorial bounds.
func (m *Model) SetBounder(b Bounder) { m.bounder = b }

func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) {
	m.constraints = append(m.constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

func (m *Model) NumVars() int                { return len(m.names) }
func (m *Model) NumConstraints() int         { return len(m.constraints) }
func (m *Model) VarName(v int) string        { return m.names[v] }
func (m *Model) Objective(v int) float64     { return m.objective[v] }
func (m *Model) Priority(v int) int          { return m.priority[v] }
func (m *Model) Constraint(k int) Constraint { return m.constraints[k] }
func (m *Model) Constraints() []Constraint   { return m.constraints }

// Validate checks that every term references a declared variable and every
// coefficient is finite.
func (m *Model) Validate() error {
	for v, c := range m.objective {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("ilp: objective of %s is not finite", m.names[v])
		}
	}
	if m.start != nil && len(m.start) != len(m.names) {
		return fmt.Errorf("ilp: start has %d values for %d variables", len(m.start), len(m.names))
	}
	for _, c := range m.constraints {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("ilp: constraint %s has non-finite right-hand side", c.Name)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(m.names) {
				return fmt.Errorf("ilp: constraint %s references unknown variable %d", c.Name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("ilp: constraint %s has non-finite coefficient", c.Name)
			}
		}
	}
	return nil
}

// Evaluate returns the objective value of x and whether x satisfies every
// constraint within tol.
func (m *Model) Evaluate(x []bool, tol float64) (float64, bool) {
	var obj float64
	for v, on := range x {
		if on {
			obj += m.objective[v]
		}
	}
	for _, c := range m.constraints {
		var lhs float64
		for _, t := range c.Terms {
			if x[t.Var] {
				lhs += t.Coef
			}
		}
		switch c.Sense {
		case LessEq:
			if lhs > c.RHS+tol {
				return obj, false
			}
		case GreaterEq:
			if lhs < c.RHS-tol {
				return obj, false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > tol {
				return obj, false
			}
		}
	}
	return obj, true
}
