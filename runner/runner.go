// Package runner measures workloads and judges them against the baselines
// recorded for the machine they run on.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/antoninbas/benchguard/baseline"
	"github.com/antoninbas/benchguard/destination"
	"github.com/antoninbas/benchguard/regression"
	"github.com/antoninbas/benchguard/stats"
)

var ErrWorkloadFailure = errors.New("workload failed")

// WorkloadError is returned when the measured workload fails. No statistics
// are computed for the iterations completed before the failure.
type WorkloadError struct {
	Iteration int
	Err       error
}

func (e *WorkloadError) Error() string {
	return fmt.Sprintf("%v in iteration %d: %v", ErrWorkloadFailure, e.Iteration, e.Err)
}

func (e *WorkloadError) Unwrap() error { return e.Err }

func (e *WorkloadError) Is(target error) bool { return target == ErrWorkloadFailure }

// Workload is the unit of work being measured.
type Workload func() error

// Outcome is what a benchmark produced: the measurement, its verdict and, when
// the verdict allows it, a baseline candidate that is only persisted through
// Runner.Commit or Suite.Drain.
type Outcome struct {
	Group         string
	Name          string
	DestinationID string
	Result        stats.Result
	Verdict       regression.Verdict
	Pending       *baseline.PendingUpdate
	// Err is the failure returned to the caller, if any.
	Err error
}

type Runner struct {
	store    *baseline.Store
	provider destination.Provider
	now      func() time.Time
	suite    *Suite
}

type Option func(*Runner)

// WithProvider replaces the platform fingerprint provider.
func WithProvider(p destination.Provider) Option {
	return func(r *Runner) { r.provider = p }
}

// WithClock replaces the clock used to time iterations. It must be monotonic.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithSuite records every outcome in s.
func WithSuite(s *Suite) Option {
	return func(r *Runner) { r.suite = s }
}

func New(store *baseline.Store, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		provider: destination.CurrentProvider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Measure runs workload count times, one iteration after the other, and
// returns one duration per iteration in execution order. The first failing
// iteration aborts the run.
func (r *Runner) Measure(ctx context.Context, count int, workload Workload) ([]time.Duration, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: executionCount must be positive, got %d", ErrInvalidConfig, count)
	}
	samples := make([]time.Duration, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := r.now()
		err := call(workload)
		elapsed := r.now().Sub(start)
		if err != nil {
			return nil, &WorkloadError{Iteration: i + 1, Err: err}
		}
		samples = append(samples, elapsed)
	}
	return samples, nil
}

func call(workload Workload) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return workload()
}

// Benchmark measures workload and evaluates the samples. See Evaluate.
func (r *Runner) Benchmark(ctx context.Context, group, name string, cfg *Config, workload Workload) (*Outcome, error) {
	resolved, err := resolve(cfg)
	if err != nil {
		return nil, err
	}
	samples, err := r.Measure(ctx, resolved.ExecutionCount, workload)
	if err != nil {
		return nil, err
	}
	return r.Evaluate(group, name, resolved, samples)
}

// Evaluate judges samples against the baseline stored for (group, name) on
// the current destination. The returned error is the verdict's failure, if
// any; the outcome is returned alongside it so that it can still be reported.
// A zero measurement is reported the same way with regression.ErrDivisionByZero
// and no verdict. Other errors that prevent a verdict return a nil outcome.
func (r *Runner) Evaluate(group, name string, cfg *Config, samples []time.Duration) (*Outcome, error) {
	cfg, err := resolve(cfg)
	if err != nil {
		return nil, err
	}
	name = QualifiedName(name, cfg.TestInfo)
	test := group + "." + name

	result := stats.Result{
		Samples:                                 samples,
		MaxRelativeStandardDeviation:            cfg.MaxRelativeStandardDeviation,
		StandardDeviationNegligibilityThreshold: cfg.StandardDeviationNegligibilityThreshold,
	}
	klog.InfoS(result.Summary(), "test", test)

	fp, err := r.provider.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("unable to fingerprint the run destination: %w", err)
	}
	registry, err := r.store.LoadRegistry()
	if err != nil {
		return nil, err
	}
	destinationID, found := registry.Find(fp)

	var existing *baseline.Baseline
	if found {
		catalog, err := r.store.LoadCatalog(destinationID)
		if err != nil {
			return nil, err
		}
		if b, ok := catalog.Lookup(group, name); ok {
			existing = &b
		}
	} else {
		klog.V(2).InfoS("Run destination is not registered", "test", test)
	}

	outcome := &Outcome{
		Group:         group,
		Name:          name,
		DestinationID: destinationID,
		Result:        result,
	}
	verdict, err := regression.Evaluate(result, cfg.Strategy, existing)
	outcome.Verdict = verdict
	if errors.Is(err, regression.ErrDivisionByZero) {
		return r.record(test, outcome, fmt.Errorf("unable to evaluate %s: %w", test, err))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to evaluate %s: %w", test, err)
	}

	if verdict.Stageable() {
		pending, err := stage(fp, destinationID, group, name, cfg, result, existing)
		if errors.Is(err, regression.ErrDivisionByZero) {
			return r.record(test, outcome, fmt.Errorf("unable to stage a baseline for %s: %w", test, err))
		}
		if err != nil {
			return nil, fmt.Errorf("unable to stage a baseline for %s: %w", test, err)
		}
		outcome.Pending = pending
	}
	return r.record(test, outcome, verdict.Err(cfg.allowFailure(), cfg.requireBaseline()))
}

// record logs and stores the outcome with its failure. A division by zero is
// always fatal and leaves nothing to stage.
func (r *Runner) record(test string, outcome *Outcome, err error) (*Outcome, error) {
	outcome.Err = err
	logVerdict(test, outcome.Verdict, err)
	if r.suite != nil {
		r.suite.Record(outcome)
	}
	return outcome, err
}

// stage builds the baseline candidate from the average of result. An
// existing baseline keeps its tolerance.
func stage(fp destination.Fingerprint, destinationID, group, name string, cfg *Config, result stats.Result, existing *baseline.Baseline) (*baseline.PendingUpdate, error) {
	average, err := result.Average()
	if err != nil {
		return nil, err
	}
	if average == 0 {
		return nil, fmt.Errorf("%w: new measurement is zero", regression.ErrDivisionByZero)
	}
	tolerance := baseline.DefaultTolerance
	if existing != nil {
		tolerance = existing.MaxPercentRelativeStandardDeviation
	}
	b, err := baseline.New(cfg.Strategy, average, tolerance, cfg.UserInfo)
	if err != nil {
		return nil, err
	}
	return &baseline.PendingUpdate{
		Fingerprint:   fp,
		DestinationID: destinationID,
		Group:         group,
		Name:          name,
		Baseline:      b,
	}, nil
}

func logVerdict(test string, v regression.Verdict, err error) {
	switch {
	case err != nil:
		klog.ErrorS(err, "Benchmark failed", "test", test)
	case v.Kind == regression.BaselineMissing:
		klog.InfoS("Baseline not found, a new baseline will be staged", "test", test)
	case v.Kind == regression.Regressed || v.Kind == regression.Inconclusive:
		klog.InfoS("Failure downgraded to a warning: "+v.String(), "test", test)
	default:
		klog.InfoS(v.String(), "test", test, "verdict", v.Kind)
	}
}

// Commit applies the pending update of a single outcome. Nothing is written
// unless overwrite is set.
func (r *Runner) Commit(outcome *Outcome, overwrite bool) (*baseline.Rendered, error) {
	if outcome == nil || outcome.Pending == nil {
		return &baseline.Rendered{}, nil
	}
	return r.store.Apply(overwrite, *outcome.Pending)
}
