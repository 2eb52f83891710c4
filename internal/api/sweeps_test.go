package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
	"github.com/MikeSquared-Agency/Portfolio/internal/ilp"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&benefit.ValidationError{Field: "costs", Reason: "missing"}, http.StatusBadRequest},
		{fmt.Errorf("threshold 0.7: %w", &benefit.ReferenceError{Strategy: "Burnin"}), http.StatusBadRequest},
		{fmt.Errorf("solving: %w", ilp.ErrNoSolution), http.StatusGatewayTimeout},
		{&ilp.SolverError{Op: "simplex", Err: errors.New("singular")}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIntParam(t *testing.T) {
	if v, err := intParam(""); err != nil || v != 0 {
		t.Errorf("empty: got %d, %v", v, err)
	}
	if v, err := intParam("25"); err != nil || v != 25 {
		t.Errorf("25: got %d, %v", v, err)
	}
	if _, err := intParam("-3"); err == nil {
		t.Error("expected error for negative value")
	}
}
