// Package regression judges a fresh benchmark result against its baseline.
//
// Percent differences are computed as (measured - baseline) / baseline * 100.
// A positive difference means the new measurement is slower, i.e. worse; a
// negative or zero difference means it is faster or equal, i.e. better.
package regression

import (
	"errors"
	"fmt"
	"math"

	"github.com/antoninbas/benchguard/baseline"
	"github.com/antoninbas/benchguard/stats"
)

var (
	ErrHighVariance    = errors.New("measurements are too noisy")
	ErrRegressed       = errors.New("performance regressed beyond tolerance")
	ErrBaselineMissing = errors.New("baseline not found")
	ErrDivisionByZero  = errors.New("division by zero")
)

type Kind int

const (
	BaselineMissing Kind = iota
	Improved
	WithinTolerance
	Regressed
	Inconclusive
)

func (k Kind) String() string {
	switch k {
	case BaselineMissing:
		return "BaselineMissing"
	case Improved:
		return "Improved"
	case WithinTolerance:
		return "WithinTolerance"
	case Regressed:
		return "Regressed"
	case Inconclusive:
		return "Inconclusive"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Verdict is the classified outcome of a comparison. Only the fields relevant
// to Kind are set.
type Verdict struct {
	Kind     Kind
	Strategy baseline.Strategy
	// Percent is the signed difference to the baseline; positive is slower.
	Percent   float64
	Baseline  float64
	Measured  float64
	Tolerance float64

	Reason                       string
	RelativeStandardDeviation    float64
	MaxRelativeStandardDeviation float64
}

// Stageable reports whether the result may replace the stored baseline.
// Noisy results never do.
func (v Verdict) Stageable() bool {
	return v.Kind != Inconclusive
}

// Err returns the failure carried by the verdict, or nil when the verdict is
// not fatal. allowFailure downgrades high variance and regressions;
// requireBaseline turns a missing baseline into a failure.
func (v Verdict) Err(allowFailure, requireBaseline bool) error {
	switch v.Kind {
	case Inconclusive:
		if !allowFailure {
			return fmt.Errorf("%w: %s", ErrHighVariance, v)
		}
	case Regressed:
		if !allowFailure {
			return fmt.Errorf("%w: %s", ErrRegressed, v)
		}
	case BaselineMissing:
		if requireBaseline {
			return ErrBaselineMissing
		}
	}
	return nil
}

func (v Verdict) String() string {
	switch v.Kind {
	case Inconclusive:
		return fmt.Sprintf("The relative standard deviation of the measurements is %.3f%% which is higher than the max allowed of %.3f%%.",
			v.RelativeStandardDeviation, v.MaxRelativeStandardDeviation)
	case BaselineMissing:
		return "Baseline not found."
	case Improved:
		return fmt.Sprintf("Strategy: %s, baseline measurement: %s, new measurement: %s, which is better by %.3f%%.",
			v.Strategy, stats.FormatSeconds(v.Baseline), stats.FormatSeconds(v.Measured), math.Abs(v.Percent))
	case WithinTolerance:
		return fmt.Sprintf("Strategy: %s, baseline measurement: %s, new measurement: %s, which is worse by %.3f%% (but within the margin of %.3f%%).",
			v.Strategy, stats.FormatSeconds(v.Baseline), stats.FormatSeconds(v.Measured), v.Percent, v.Tolerance)
	case Regressed:
		return fmt.Sprintf("Strategy: %s, baseline measurement: %s, new measurement: %s, which is worse by %.3f%% (max allowed deviation is %.3f%%).",
			v.Strategy, stats.FormatSeconds(v.Baseline), stats.FormatSeconds(v.Measured), v.Percent, v.Tolerance)
	}
	return v.Kind.String()
}
