package ilp

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpFailed
)

// simplexTol is the reduced-cost tolerance handed to the simplex.
const simplexTol = 1e-9

// relax solves the LP relaxation of the node described by fix over the free
// variables. Rows that cannot bind anywhere in the unit box are dropped, and
// an explicit x <= 1 row is only added when no kept row already implies it.
// On success it returns the bound (objective of the fixed part plus the LP
// optimum) and the LP values of the free variables, in the order of free.
// The LP is skipped when it is too large or would not fit the time left; an
// error is only returned once the deadline has passed.
func (e *bbEngine) relax(fix []int8, free []int, fixedObj float64) (float64, []float64, lpStatus, error) {
	if e.maxLPRows < 0 {
		return 0, nil, lpFailed, nil
	}
	k := len(free)
	pos := make([]int, e.n)
	for i := range pos {
		pos[i] = -1
	}
	for p, v := range free {
		pos[v] = p
	}

	type lpRow struct {
		src   row
		rhs   float64
		slack bool
	}
	var rows []lpRow
	implied := make([]bool, k)
	eqRows := 0

	for _, r := range e.rows {
		_, hi, fs := e.rowRange(r, fix)
		hasFree, nonNeg := false, true
		for t, v := range r.vars {
			if fix[v] < 0 {
				hasFree = true
				if r.coefs[t] < 0 {
					nonNeg = false
				}
			}
		}
		if !hasFree {
			continue
		}
		if !r.eq && hi <= r.rhs+e.tol {
			continue
		}
		rhs := r.rhs - fs
		if r.eq {
			eqRows++
		} else if nonNeg {
			for t, v := range r.vars {
				if a := r.coefs[t]; fix[v] < 0 && a > 0 && rhs/a <= 1+e.tol {
					implied[pos[v]] = true
				}
			}
		}
		rows = append(rows, lpRow{src: r, rhs: rhs, slack: !r.eq})
	}
	boxRows := 0
	for _, ok := range implied {
		if !ok {
			boxRows++
		}
	}

	nRows := len(rows) + boxRows
	if nRows == 0 {
		// Nothing constrains the free variables beyond the box.
		x := make([]float64, k)
		bound := fixedObj
		for p, v := range free {
			if e.obj[v] > 0 {
				x[p] = 1
				bound += e.obj[v]
			}
		}
		return bound, x, lpOptimal, nil
	}
	if e.maxLPRows > 0 && nRows > e.maxLPRows {
		return 0, nil, lpFailed, nil
	}
	slacks := nRows - eqRows
	nCols := k + slacks
	if nRows > nCols {
		return 0, nil, lpFailed, nil
	}
	if ok, err := e.lpAffordable(nRows); err != nil || !ok {
		return 0, nil, lpFailed, err
	}

	A := mat.NewDense(nRows, nCols, nil)
	b := make([]float64, nRows)
	c := make([]float64, nCols)
	for p, v := range free {
		c[p] = -e.obj[v]
	}
	basis := make([]int, 0, nRows)
	slackBasis := eqRows == 0
	s := k
	for i, r := range rows {
		for t, v := range r.src.vars {
			if fix[v] < 0 {
				A.Set(i, pos[v], r.src.coefs[t])
			}
		}
		rhs := r.rhs
		if rhs < 0 && rhs > -e.tol {
			rhs = 0
		}
		if rhs < 0 {
			slackBasis = false
		}
		b[i] = rhs
		if r.slack {
			A.Set(i, s, 1)
			basis = append(basis, s)
			s++
		}
	}
	i := len(rows)
	for p, ok := range implied {
		if ok {
			continue
		}
		A.Set(i, p, 1)
		A.Set(i, s, 1)
		b[i] = 1
		basis = append(basis, s)
		s++
		i++
	}
	if !slackBasis {
		basis = nil
	}

	began := time.Now()
	optF, x, err := simplex(c, A, b, basis)
	e.observeLP(nRows, time.Since(began))
	switch {
	case err == nil:
	case errors.Is(err, lp.ErrInfeasible):
		return 0, nil, lpInfeasible, nil
	default:
		return 0, nil, lpFailed, nil
	}
	return fixedObj - optF, x[:k], lpOptimal, nil
}

// lpAffordable reports whether an LP of the given size should run: its
// estimated cost must fit in half of the time left, and LP time so far must
// stay under half of the elapsed search time. Past the deadline it returns
// the time limit error.
func (e *bbEngine) lpAffordable(rows int) (bool, error) {
	now := time.Now()
	if e.useDeadline {
		left := e.deadline.Sub(now)
		if left <= 0 {
			return false, errTimeLimit
		}
		if e.lpEstimate(rows) > left/2 {
			return false, nil
		}
	}
	return e.lpTime <= now.Sub(e.start)/2, nil
}

func (e *bbEngine) lpEstimate(rows int) time.Duration {
	r := float64(rows)
	return time.Duration(e.lpUnit * r * r * r * r * float64(time.Second))
}

// lpCalibrationRows is the smallest LP whose timing updates the cost model;
// below it fixed overhead dominates.
const lpCalibrationRows = 20

func (e *bbEngine) observeLP(rows int, d time.Duration) {
	e.lpTime += d
	if rows < lpCalibrationRows {
		return
	}
	r := float64(rows)
	e.lpUnit = (e.lpUnit + d.Seconds()/(r*r*r*r)) / 2
}

// simplex calls gonum's solver, turning a panic on malformed input into an
// error so the search can fall back to the combinatorial bound.
func simplex(c []float64, A mat.Matrix, b []float64, basis []int) (optF float64, x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lp: simplex panic: %v", r)
		}
	}()
	return lp.Simplex(c, A, b, simplexTol, basis)
}
