package ilp

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInfeasible means no 0/1 assignment satisfies the constraints.
	ErrInfeasible = errors.New("ilp: model is infeasible")
	// ErrNoSolution means the search hit its time or node bound before
	// proving optimality. Callers may retry with a larger bound.
	ErrNoSolution = errors.New("ilp: no solution found within bound")
)

// SolverError wraps a failure of the engine itself.
type SolverError struct {
	Op  string
	Err error
}

func (e *SolverError) Error() string { return fmt.Sprintf("ilp: %s: %v", e.Op, e.Err) }
func (e *SolverError) Unwrap() error { return e.Err }

// Assignment is an optimal solution of a Model.
type Assignment struct {
	Values    []bool  `json:"values"`
	Objective float64 `json:"objective"`
	Nodes     int     `json:"nodes"`
}

// Value reports whether variable v is set. Out-of-range indexes are unset.
func (a *Assignment) Value(v int) bool {
	if v < 0 || v >= len(a.Values) {
		return false
	}
	return a.Values[v]
}

// Solver returns an optimal assignment for m, ErrInfeasible, ErrNoSolution or
// a *SolverError. Identical inputs must produce identical assignments.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Assignment, error)
}
