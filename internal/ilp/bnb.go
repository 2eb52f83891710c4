package ilp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Options bounds a branch-and-bound run.
type Options struct {
	// TimeLimit caps the wall time of one Solve call. Zero means no limit
	// beyond the context deadline.
	TimeLimit time.Duration
	// MaxNodes caps the number of explored nodes. Zero means unlimited.
	MaxNodes int
	// Tolerance is used for feasibility and integrality checks.
	Tolerance float64
	// MaxLPRows skips the LP bound on nodes whose relaxation would have more
	// rows. Zero means no cap; a negative value disables the LP bound.
	MaxLPRows int
}

// DefaultOptions mirrors the service defaults.
func DefaultOptions() Options {
	return Options{
		TimeLimit: 30 * time.Second,
		MaxNodes:  500000,
		Tolerance: 1e-6,
		MaxLPRows: 300,
	}
}

// BranchAndBound is an exact depth-first solver for binary programs. Bounds
// come from constraint propagation, the model's Bounder if it has one, and
// the LP relaxation (gonum simplex) when it fits in the time left.
//
// Branching is deterministic: the free variable with the highest priority,
// lowest index on ties, with the 1-branch explored first. Among solutions
// of equal objective the one that is lexicographically greatest in
// branching order is kept, so the result does not depend on which LPs ran.
type BranchAndBound struct {
	opts Options
}

func NewBranchAndBound(opts Options) *BranchAndBound {
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}
	return &BranchAndBound{opts: opts}
}

// Solve implements Solver.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (*Assignment, error) {
	start := time.Now()
	a, err := b.solve(ctx, m)
	observeSolve(start, a, err)
	return a, err
}

func (b *BranchAndBound) solve(ctx context.Context, m *Model) (*Assignment, error) {
	if err := m.Validate(); err != nil {
		return nil, &SolverError{Op: "validate", Err: err}
	}
	e := newEngine(m, b.opts)
	if b.opts.TimeLimit > 0 {
		e.useDeadline = true
		e.deadline = e.start.Add(b.opts.TimeLimit)
	}

	fix := make([]int8, e.n)
	for v := range fix {
		fix[v] = -1
	}
	e.presolve(fix)

	e.offerIfFeasible(make([]bool, e.n))
	if m.start != nil {
		e.offerIfFeasible(m.start)
	}

	if err := e.branch(ctx, fix); err != nil {
		return nil, err
	}
	if !e.found {
		return nil, ErrInfeasible
	}
	return &Assignment{Values: e.best, Objective: e.bestObj, Nodes: e.nodes}, nil
}

// row is a constraint normalised to sum(coefs*x) <= rhs, or = rhs when eq.
type row struct {
	vars  []int
	coefs []float64
	rhs   float64
	eq    bool
}

type bbEngine struct {
	m       *Model
	n       int
	tol     float64
	obj     []float64
	order   []int
	bounder Bounder

	rows []row

	maxNodes  int
	maxLPRows int

	start       time.Time
	useDeadline bool
	deadline    time.Time
	nodes       int

	// lpTime is the wall time spent in the simplex so far; lpUnit estimates
	// seconds per rows^4 of one LP.
	lpTime time.Duration
	lpUnit float64

	best    []bool
	bestObj float64
	found   bool
}

// initialLPUnit is a deliberately pessimistic cost model for the first LP.
const initialLPUnit = 2e-9

func newEngine(m *Model, opts Options) *bbEngine {
	e := &bbEngine{
		m:         m,
		n:         m.NumVars(),
		tol:       opts.Tolerance,
		bounder:   m.bounder,
		maxNodes:  opts.MaxNodes,
		maxLPRows: opts.MaxLPRows,
		start:     time.Now(),
		lpUnit:    initialLPUnit,
	}
	e.obj = make([]float64, e.n)
	e.order = make([]int, e.n)
	for v := range e.obj {
		e.obj[v] = m.Objective(v)
		e.order[v] = v
	}
	sort.SliceStable(e.order, func(a, b int) bool {
		return m.Priority(e.order[a]) > m.Priority(e.order[b])
	})
	for _, c := range m.Constraints() {
		e.rows = append(e.rows, normalise(c))
	}
	return e
}

// normalise merges repeated variables, drops zero coefficients and flips
// >= rows into <= rows.
func normalise(c Constraint) row {
	sign := 1.0
	if c.Sense == GreaterEq {
		sign = -1
	}
	sum := make(map[int]float64, len(c.Terms))
	var order []int
	for _, t := range c.Terms {
		if _, seen := sum[t.Var]; !seen {
			order = append(order, t.Var)
		}
		sum[t.Var] += sign * t.Coef
	}
	r := row{rhs: sign * c.RHS, eq: c.Sense == Equal}
	for _, v := range order {
		if a := sum[v]; a != 0 {
			r.vars = append(r.vars, v)
			r.coefs = append(r.coefs, a)
		}
	}
	return r
}

// rowRange returns the smallest and largest left-hand side r can still take
// under fix, and the contribution of the fixed variables.
func (e *bbEngine) rowRange(r row, fix []int8) (lo, hi, fixed float64) {
	for t, v := range r.vars {
		a := r.coefs[t]
		switch fix[v] {
		case 1:
			fixed += a
		case -1:
			if a < 0 {
				lo += a
			} else {
				hi += a
			}
		}
	}
	return fixed + lo, fixed + hi, fixed
}

func (e *bbEngine) admits(r row, lo, hi float64) bool {
	if lo > r.rhs+e.tol {
		return false
	}
	return !r.eq || hi >= r.rhs-e.tol
}

// propagate fixes variables forced by the bounds of each row until nothing
// changes. It reports false when some row can no longer be satisfied.
func (e *bbEngine) propagate(fix []int8) bool {
	for changed := true; changed; {
		changed = false
		for _, r := range e.rows {
			for {
				v, val, ok := e.forced(r, fix)
				if !ok {
					return false
				}
				if v < 0 {
					break
				}
				fix[v] = val
				changed = true
			}
		}
	}
	return true
}

// forced returns the first free variable of r whose value is implied by
// the row, or -1. ok is false when r cannot be satisfied under fix.
func (e *bbEngine) forced(r row, fix []int8) (v int, val int8, ok bool) {
	lo, hi, _ := e.rowRange(r, fix)
	if !e.admits(r, lo, hi) {
		return -1, 0, false
	}
	for t, v := range r.vars {
		if fix[v] >= 0 {
			continue
		}
		a := r.coefs[t]
		// Range with v pinned to 0, then shifted by a for v pinned to 1.
		lo0, hi0 := lo-math.Min(0, a), hi-math.Max(0, a)
		ok0 := e.admits(r, lo0, hi0)
		ok1 := e.admits(r, lo0+a, hi0+a)
		switch {
		case !ok0 && !ok1:
			return -1, 0, false
		case !ok1:
			return v, 0, true
		case !ok0:
			return v, 1, true
		}
	}
	return -1, 0, true
}

// presolve fixes variables that can be set without losing optimality: a
// variable with non-positive objective whose coefficients never help any
// row goes to 0, and the mirror case goes to 1.
func (e *bbEngine) presolve(fix []int8) {
	up := make([]bool, e.n)   // some row gets harder when v rises
	down := make([]bool, e.n) // some row gets harder when v falls
	for _, r := range e.rows {
		for t, v := range r.vars {
			a := r.coefs[t]
			if r.eq {
				up[v], down[v] = true, true
				continue
			}
			if a > 0 {
				up[v] = true
			} else {
				down[v] = true
			}
		}
	}
	for v := 0; v < e.n; v++ {
		switch {
		case e.obj[v] <= 0 && !down[v]:
			fix[v] = 0
		case e.obj[v] >= 0 && !up[v]:
			fix[v] = 1
		}
	}
}

func (e *bbEngine) tick(ctx context.Context) error {
	e.nodes++
	if e.maxNodes > 0 && e.nodes > e.maxNodes {
		return fmt.Errorf("%w: node limit %d reached", ErrNoSolution, e.maxNodes)
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrNoSolution, err)
		}
		return err
	}
	if e.useDeadline && !time.Now().Before(e.deadline) {
		return errTimeLimit
	}
	return nil
}

var errTimeLimit = fmt.Errorf("%w: time limit reached", ErrNoSolution)

// before reports whether x precedes y in branching order: at the first
// variable where they differ, x is the one set to 1.
func (e *bbEngine) before(x, y []bool) bool {
	for _, v := range e.order {
		if x[v] != y[v] {
			return x[v]
		}
	}
	return false
}

// offer records x as the incumbent if it improves on it, or ties it and
// comes first in branching order.
func (e *bbEngine) offer(x []bool, obj float64) {
	if e.found {
		if obj < e.bestObj-e.tol {
			return
		}
		if obj <= e.bestObj+e.tol && !e.before(x, e.best) {
			return
		}
	}
	e.best = append(e.best[:0], x...)
	e.bestObj = obj
	e.found = true
}

func (e *bbEngine) offerIfFeasible(x []bool) {
	if obj, ok := e.m.Evaluate(x, e.tol); ok {
		e.offer(x, obj)
	}
}

// prunable reports whether no completion of fix can displace the incumbent:
// bound is below it, or bound only ties it and every completion comes after
// it in branching order.
func (e *bbEngine) prunable(fix []int8, bound float64) bool {
	if !e.found {
		return false
	}
	if bound < e.bestObj-e.tol {
		return true
	}
	if bound > e.bestObj+e.tol {
		return false
	}
	for _, v := range e.order {
		switch {
		case fix[v] == 1 && !e.best[v], fix[v] < 0 && !e.best[v]:
			return false
		case fix[v] == 0 && e.best[v]:
			return true
		}
	}
	return true
}

func assignment(fix []int8) []bool {
	x := make([]bool, len(fix))
	for v, f := range fix {
		x[v] = f == 1
	}
	return x
}

func (e *bbEngine) branch(ctx context.Context, fix []int8) error {
	if err := e.tick(ctx); err != nil {
		return err
	}
	if !e.propagate(fix) {
		return nil
	}

	var free []int
	var fixedObj, optimistic float64
	for v, f := range fix {
		switch f {
		case 1:
			fixedObj += e.obj[v]
		case -1:
			free = append(free, v)
			optimistic += math.Max(0, e.obj[v])
		}
	}

	if len(free) == 0 {
		e.offerIfFeasible(assignment(fix))
		return nil
	}

	bound := fixedObj + optimistic
	if e.bounder != nil {
		bound = math.Min(bound, e.bounder.Bound(fix))
	}
	if e.prunable(fix, bound) {
		return nil
	}

	lpBound, lpX, status, err := e.relax(fix, free, fixedObj)
	if err != nil {
		return err
	}
	switch status {
	case lpInfeasible:
		return nil
	case lpOptimal:
		if integral(lpX, e.tol) {
			x := assignment(fix)
			for p, v := range free {
				x[v] = lpX[p] > 0.5
			}
			e.offerIfFeasible(x)
		}
		if e.prunable(fix, lpBound) {
			return nil
		}
	}

	next := -1
	for _, v := range e.order {
		if fix[v] < 0 {
			next = v
			break
		}
	}
	for _, val := range [...]int8{1, 0} {
		child := make([]int8, len(fix))
		copy(child, fix)
		child[next] = val
		if err := e.branch(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func integral(x []float64, tol float64) bool {
	for _, v := range x {
		if math.Min(v-math.Floor(v), math.Ceil(v)-v) > tol {
			return false
		}
	}
	return true
}
