package hermes

const (
	SubjectSweepRequest = "portfolio.sweep.request"

	StreamName     = "PORTFOLIO_EVENTS"
	StreamSubjects = "portfolio.sweep.>"
	StreamMaxAge   = "720h" // 30 days
)

func SubjectSweepCompleted(runID string) string { return "portfolio.sweep." + runID + ".completed" }
func SubjectSweepFailed(runID string) string    { return "portfolio.sweep." + runID + ".failed" }
