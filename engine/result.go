package engine

import (
	"encoding/json"
	"time"

	"github.com/kbukum/flowforge/job"
)

// Result is the outcome of one pipeline run.
//
// TotalFiles counts the jobs the sources produced. Without fan-out,
// Succeeded+Failed+Skipped <= TotalFiles.
type Result struct {
	RunID      string
	Pipeline   string
	DryRun     bool
	TotalFiles int
	Succeeded  int
	Failed     int
	Skipped    int
	Duration   time.Duration
	// Jobs holds a snapshot of every finalized job in finalization order.
	Jobs []job.Job
}

// Outcome classifies a finished run.
type Outcome int

const (
	// OutcomeSuccess means no job failed.
	OutcomeSuccess Outcome = iota
	// OutcomePartial means some jobs failed and some succeeded.
	OutcomePartial
	// OutcomeFailure means jobs failed and none succeeded.
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	case OutcomeFailure:
		return "failure"
	}
	return "unknown"
}

// Outcome classifies the result by its failed and succeeded counts.
func (r *Result) Outcome() Outcome {
	switch {
	case r.Failed == 0:
		return OutcomeSuccess
	case r.Succeeded > 0:
		return OutcomePartial
	default:
		return OutcomeFailure
	}
}

// JobsWithStatus returns the snapshots whose status is s.
func (r *Result) JobsWithStatus(s job.Status) []job.Job {
	var out []job.Job
	for _, j := range r.Jobs {
		if j.Status == s {
			out = append(out, j)
		}
	}
	return out
}

type resultView struct {
	RunID      string    `json:"runId"`
	Pipeline   string    `json:"pipeline"`
	IsDryRun   bool      `json:"isDryRun"`
	TotalFiles int       `json:"totalFiles"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	DurationMs int64     `json:"durationMs"`
	Jobs       []job.Job `json:"jobs"`
}

// MarshalJSON renders the result with camelCase keys and the duration in
// milliseconds.
func (r *Result) MarshalJSON() ([]byte, error) {
	jobs := r.Jobs
	if jobs == nil {
		jobs = []job.Job{}
	}
	return json.Marshal(resultView{
		RunID:      r.RunID,
		Pipeline:   r.Pipeline,
		IsDryRun:   r.DryRun,
		TotalFiles: r.TotalFiles,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Skipped:    r.Skipped,
		DurationMs: r.Duration.Milliseconds(),
		Jobs:       jobs,
	})
}
