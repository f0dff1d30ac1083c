package yearly

import (
	"time"
)

type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusSkipped Status = "skipped"
	StatusPlanned Status = "planned"
	StatusFailed  Status = "failed"
)

type PatientResult struct {
	PatientId   string
	Status      Status
	RecordCount int
	Err         error
}

// Report describes what a single invocation did, patient by patient, in
// processing order
type Report struct {
	RunId      string
	TargetYear int
	Window     Window
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	StartAfter string
	Aborted    bool
	Results    []PatientResult
}

func (r *Report) Count(status Status) int {
	count := 0
	for _, result := range r.Results {
		if result.Status == status {
			count++
		}
	}
	return count
}

func (r *Report) Succeeded() int {
	return len(r.Results) - r.Failed()
}

func (r *Report) Failed() int {
	return r.Count(StatusFailed)
}

// ResumeAfter is the id of the last patient processed before the first
// failure. Restarting the run after it retries the failed patient and
// everything that followed.
func (r *Report) ResumeAfter() string {
	resumeAfter := r.StartAfter
	for _, result := range r.Results {
		if result.Status == StatusFailed {
			break
		}
		resumeAfter = result.PatientId
	}
	return resumeAfter
}

func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
