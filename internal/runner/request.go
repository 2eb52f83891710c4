package runner

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
	"github.com/MikeSquared-Agency/Portfolio/internal/optimize"
)

// Problem is the benefit matrix and everything needed to preprocess it.
// Strategy and species labels are optional; placeholders are generated when
// they are missing.
type Problem struct {
	Strategies    []string           `json:"strategies,omitempty" validate:"omitempty,dive,required"`
	Species       []string           `json:"species,omitempty" validate:"omitempty,dive,required"`
	Matrix        [][]float64        `json:"matrix" validate:"required,min=1,dive,min=1"`
	Costs         map[string]float64 `json:"costs" validate:"required,min=1,dive,gte=0"`
	BaselineIndex *int               `json:"baseline_index,omitempty" validate:"omitempty,gte=0"`
	AllIndex      *int               `json:"all_index,omitempty" validate:"omitempty,gte=0"`
	Combos        []benefit.Combo    `json:"combos,omitempty"`
	Weights       map[string]float64 `json:"weights,omitempty" validate:"omitempty,dive,gte=0"`
}

// Request is the body of a sweep, over HTTP or NATS.
type Request struct {
	Problem
	Thresholds []float64 `json:"thresholds" validate:"required,min=1,max=100"`
	Budgets    []float64 `json:"budgets,omitempty" validate:"omitempty,max=1000,dive,gte=0"`
	Workers    int       `json:"workers,omitempty" validate:"omitempty,min=1,max=64"`
}

// SolveRequest is a single (threshold, budget) solve.
type SolveRequest struct {
	Problem
	Threshold float64 `json:"threshold"`
	Budget    float64 `json:"budget" validate:"gte=0"`
}

// BudgetRequest previews the generated ladder for a set of costs.
type BudgetRequest struct {
	Costs []float64 `json:"costs" validate:"required,min=1,dive,gte=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks a request DTO and reports the first violation as a
// *benefit.ValidationError.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		reason := fmt.Sprintf("failed %q check", fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
		}
		return &benefit.ValidationError{Field: fe.Field(), Reason: reason}
	}
	return &benefit.ValidationError{Reason: err.Error()}
}

// build turns the DTO into the raw matrix and cost vector. Costs are
// ordered by name; Prepare realigns them to the matrix rows.
func (p *Problem) build() (*benefit.Matrix, benefit.CostVector, error) {
	m, err := benefit.NewMatrix(p.Strategies, p.Species, p.Matrix)
	if err != nil {
		return nil, benefit.CostVector{}, err
	}
	names := make([]string, 0, len(p.Costs))
	for n := range p.Costs {
		names = append(names, n)
	}
	sort.Strings(names)
	costs, err := benefit.CostsFromMap(names, p.Costs)
	if err != nil {
		return nil, benefit.CostVector{}, err
	}
	return m, costs, nil
}

func (p *Problem) options(defaultBaseline int) optimize.InstanceOptions {
	opts := optimize.InstanceOptions{
		BaselineIndex: defaultBaseline,
		AllIndex:      benefit.NoSentinel,
		Combos:        p.Combos,
	}
	if p.BaselineIndex != nil {
		opts.BaselineIndex = *p.BaselineIndex
	}
	if p.AllIndex != nil {
		opts.AllIndex = *p.AllIndex
	}
	if p.Weights != nil {
		opts.Weights = benefit.Weights(p.Weights)
	}
	return opts
}
