package batch

// Report messages.
const (
	MessageCompleted = "Embedding regeneration completed"
	MessageEmpty     = "No items found to regenerate embeddings"
)

// Report summarizes one regeneration run. It is returned to the caller and never stored.
type Report struct {
	RunID     string
	Total     int
	Succeeded []string
	Errors    []string
}

// NewReport folds per-item results into a report, preserving item order.
func NewReport(runID string, results []Result) Report {
	r := Report{
		RunID:     runID,
		Total:     len(results),
		Succeeded: make([]string, 0, len(results)),
		Errors:    make([]string, 0),
	}
	for _, res := range results {
		if res.Status() == StatusOK {
			r.Succeeded = append(r.Succeeded, res.ID())
			continue
		}
		r.Errors = append(r.Errors, res.Reason())
	}
	return r
}

// Processed returns the number of items whose embedding was written.
func (r Report) Processed() int { return len(r.Succeeded) }

// Failed returns the number of items that failed.
func (r Report) Failed() int { return len(r.Errors) }

// Message returns the operator-facing summary line.
func (r Report) Message() string {
	if r.Total == 0 {
		return MessageEmpty
	}
	return MessageCompleted
}
