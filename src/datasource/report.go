package datasource

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Report records one detection sweep for operators: which candidates were
// probed in which stage, how each fared, and what was selected.
type Report struct {
	RunID         string        `json:"run_id"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   time.Time     `json:"completed_at"`
	Probes        []ProbeRecord `json:"probes"`
	Selected      string        `json:"selected,omitempty"`
	SelectedStage string        `json:"selected_stage,omitempty"`
}

// ProbeRecord is one probe attempt inside a report.
type ProbeRecord struct {
	Stage     string        `json:"stage"`
	Name      string        `json:"name"`
	Success   bool          `json:"success"`
	Reason    FailureReason `json:"reason,omitempty"`
	ElapsedMS float64       `json:"elapsed_ms"`
	Error     string        `json:"error,omitempty"`
}

func newReport() *Report {
	return &Report{RunID: ulid.Make().String(), StartedAt: time.Now().UTC()}
}

func (r *Report) add(stage string, o Outcome) {
	rec := ProbeRecord{
		Stage:     stage,
		Name:      o.Descriptor.Name,
		Success:   o.Success,
		Reason:    o.Reason,
		ElapsedMS: float64(o.Elapsed) / float64(time.Millisecond),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	r.Probes = append(r.Probes, rec)
}

func (r *Report) finish() {
	r.CompletedAt = time.Now().UTC()
}
