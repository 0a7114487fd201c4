package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud-init-strict/src/sysconfig"
)

// FailureReason classifies why a probe did not select its candidate.
type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonTimeout       FailureReason = "TIMEOUT"
	ReasonNotApplicable FailureReason = "NOT_APPLICABLE"
	ReasonError         FailureReason = "ERROR"
)

// Outcome is the result of probing one candidate. Instance is set only on
// success, at which point ownership passes to the caller.
type Outcome struct {
	Descriptor Descriptor
	Success    bool
	Elapsed    time.Duration
	Instance   Datasource
	Reason     FailureReason
	Err        error
}

// Probe constructs one candidate and runs its readiness check under a hard
// wall-clock deadline covering both construction and the check.
//
// The check runs on its own goroutine; on deadline expiry the probe is
// reported as TIMEOUT and the in-flight instance is discarded — the
// goroutine drains into a buffered channel and exits whenever its blocking
// call returns. Failures are classified, never propagated: a broken
// candidate must not abort the detection sweep.
func Probe(ctx context.Context, desc Descriptor, env *sysconfig.Environment, timeout time.Duration) Outcome {
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		ds  Datasource
		ok  bool
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("datasource %s panicked: %v", desc.Name, r)}
			}
		}()
		ds, err := desc.New(env)
		if err != nil {
			ch <- result{err: err}
			return
		}
		ok, err := ds.GetData(probeCtx)
		ch <- result{ds: ds, ok: ok, err: err}
	}()

	select {
	case r := <-ch:
		elapsed := time.Since(start)
		switch {
		case r.err == nil && r.ok:
			return Outcome{Descriptor: desc, Success: true, Elapsed: elapsed, Instance: r.ds}
		case errors.Is(r.err, context.DeadlineExceeded):
			return Outcome{Descriptor: desc, Elapsed: elapsed, Reason: ReasonTimeout, Err: r.err}
		case r.err == nil || errors.Is(r.err, ErrNotFound):
			// Backend declined: check returned false, or it signalled
			// not-applicable explicitly.
			return Outcome{Descriptor: desc, Elapsed: elapsed, Reason: ReasonNotApplicable, Err: r.err}
		default:
			return Outcome{Descriptor: desc, Elapsed: elapsed, Reason: ReasonError, Err: r.err}
		}
	case <-probeCtx.Done():
		elapsed := time.Since(start)
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return Outcome{Descriptor: desc, Elapsed: elapsed, Reason: ReasonTimeout, Err: probeCtx.Err()}
		}
		// Outer context canceled: report as an error outcome so the sweep
		// can wind down without selecting anything.
		return Outcome{Descriptor: desc, Elapsed: elapsed, Reason: ReasonError, Err: probeCtx.Err()}
	}
}
