package datasource

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"cloud-init-strict/src/sysconfig"
)

// Detection is a successful detection result: the chosen descriptor and the
// live instance produced by its winning probe.
type Detection struct {
	Descriptor Descriptor
	Instance   Datasource
}

// Detector drives candidate resolution and probing across boot stages until
// one candidate succeeds or every stage exhausts. Probing is strictly
// sequential: cheaper stages are tried first system-wide, and within a stage
// the configured order is the tie-break.
type Detector struct {
	Registry     *Registry
	Stages       []Stage
	ProbeTimeout time.Duration
	Log          *logrus.Entry
}

// NewDetector returns a detector over reg with the default stages.
func NewDetector(reg *Registry, probeTimeout time.Duration, log *logrus.Entry) *Detector {
	return &Detector{
		Registry:     reg,
		Stages:       DefaultStages(),
		ProbeTimeout: probeTimeout,
		Log:          log,
	}
}

// Detect runs the multi-stage sweep. The first successful probe wins and
// short-circuits everything. It returns nil when all stages exhaust; the
// report is returned in both cases.
//
// Given identical configured order, stage order, and backend behavior the
// result is fully deterministic.
func (d *Detector) Detect(ctx context.Context, configured []string, exclude string, env *sysconfig.Environment) (*Detection, *Report) {
	report := newReport()
	defer report.finish()

	for _, stage := range d.Stages {
		candidates := Resolve(d.Registry, configured, exclude, stage.Available, d.Log)
		if len(candidates) == 0 {
			if d.Log != nil {
				d.Log.WithField("stage", stage.Name).Debug("no candidates for stage")
			}
			continue
		}
		for _, candidate := range candidates {
			if ctx.Err() != nil {
				return nil, report
			}
			outcome := Probe(ctx, candidate, env, d.ProbeTimeout)
			report.add(stage.Name, outcome)
			d.logOutcome(stage, outcome)
			if outcome.Success {
				report.Selected = candidate.Name
				report.SelectedStage = stage.Name
				return &Detection{Descriptor: candidate, Instance: outcome.Instance}, report
			}
		}
	}
	if d.Log != nil {
		d.Log.Warn("no functional datasource detected in any stage")
	}
	return nil, report
}

func (d *Detector) logOutcome(stage Stage, o Outcome) {
	if d.Log == nil {
		return
	}
	entry := d.Log.WithFields(logrus.Fields{
		"stage":      stage.Name,
		"datasource": o.Descriptor.Name,
		"elapsed":    o.Elapsed.Round(time.Millisecond).String(),
	})
	switch {
	case o.Success:
		entry.Info("detected functional datasource")
	case o.Reason == ReasonTimeout:
		entry.Warn("datasource check timed out")
	case o.Reason == ReasonError:
		entry.WithError(o.Err).Warn("datasource check failed")
	default:
		entry.Debug("datasource not applicable")
	}
}
