package hermes

import "encoding/json"

// SweepRequestEvent asks the service to run a sweep. Sweep carries the same
// JSON body accepted by POST /api/v1/sweeps.
type SweepRequestEvent struct {
	RequestID string          `json:"request_id,omitempty"`
	Source    string          `json:"source,omitempty"`
	Sweep     json.RawMessage `json:"sweep"`
}

type SweepCompletedEvent struct {
	RunID      string    `json:"run_id"`
	RequestID  string    `json:"request_id,omitempty"`
	Thresholds []float64 `json:"thresholds"`
	Budgets    []float64 `json:"budgets"`
	Evaluated  int       `json:"evaluated"`
	Retained   int       `json:"retained"`
	DurationMs int64     `json:"duration_ms"`
}

type SweepFailedEvent struct {
	RunID     string `json:"run_id"`
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}
