package hermes

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSweepSubjectsFallInStream(t *testing.T) {
	prefix := strings.TrimSuffix(StreamSubjects, ">")
	for _, s := range []string{SubjectSweepRequest, SubjectSweepCompleted("abc"), SubjectSweepFailed("abc")} {
		if !strings.HasPrefix(s, prefix) {
			t.Errorf("subject %s not covered by stream %s", s, StreamSubjects)
		}
	}
	if got := SubjectSweepCompleted("r1"); got != "portfolio.sweep.r1.completed" {
		t.Errorf("unexpected completed subject %s", got)
	}
	if got := SubjectSweepFailed("r1"); got != "portfolio.sweep.r1.failed" {
		t.Errorf("unexpected failed subject %s", got)
	}
}

func TestSweepRequestEventKeepsRawBody(t *testing.T) {
	data := []byte(`{"request_id":"q1","sweep":{"thresholds":[0.5]}}`)
	var evt SweepRequestEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if evt.RequestID != "q1" {
		t.Errorf("expected request id q1, got %s", evt.RequestID)
	}
	if string(evt.Sweep) != `{"thresholds":[0.5]}` {
		t.Errorf("expected raw sweep body, got %s", evt.Sweep)
	}
}
