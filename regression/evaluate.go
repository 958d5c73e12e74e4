package regression

import (
	"errors"
	"fmt"
	"math"

	"github.com/antoninbas/benchguard/baseline"
	"github.com/antoninbas/benchguard/stats"
)

// Metric returns the value of result compared under strategy.
func Metric(result stats.Result, strategy baseline.Strategy) (float64, error) {
	switch strategy {
	case baseline.Average:
		return result.Average()
	case baseline.Minimum:
		return result.Minimum()
	}
	return 0, fmt.Errorf("%w: %q", baseline.ErrUnknownStrategy, strategy)
}

// PercentDifference returns (measured - reference) / reference * 100. A zero
// operand is an error rather than an infinite or zero difference.
func PercentDifference(measured, reference float64) (float64, error) {
	if reference == 0 {
		return 0, fmt.Errorf("%w: baseline measurement is zero", ErrDivisionByZero)
	}
	if measured == 0 {
		return 0, fmt.Errorf("%w: new measurement is zero", ErrDivisionByZero)
	}
	return (measured - reference) / reference * 100, nil
}

// Evaluate compares result to b under strategy. A nil b yields a
// BaselineMissing verdict. With the average strategy, a result whose relative
// and absolute standard deviation both exceed their limits is Inconclusive and
// is not compared at all.
func Evaluate(result stats.Result, strategy baseline.Strategy, b *baseline.Baseline) (Verdict, error) {
	v := Verdict{Strategy: strategy}

	if strategy == baseline.Average {
		high, err := result.HighVariance()
		if errors.Is(err, stats.ErrZeroAverage) {
			return v, fmt.Errorf("%w: new measurement is zero", ErrDivisionByZero)
		}
		if err != nil {
			return v, err
		}
		if high {
			rsd, _ := result.RelativeStandardDeviation()
			v.Kind = Inconclusive
			v.Reason = "high variance"
			v.RelativeStandardDeviation = rsd
			v.MaxRelativeStandardDeviation = result.MaxRelativeStandardDeviation
			return v, nil
		}
	}

	measured, err := Metric(result, strategy)
	if err != nil {
		return v, err
	}
	v.Measured = measured

	if b == nil {
		v.Kind = BaselineMissing
		return v, nil
	}
	v.Baseline = b.Measurement
	v.Tolerance = b.MaxPercentRelativeStandardDeviation

	percent, err := PercentDifference(measured, b.Measurement)
	if err != nil {
		return v, err
	}
	v.Percent = percent

	switch {
	case percent <= 0:
		v.Kind = Improved
	case math.Abs(percent) <= b.MaxPercentRelativeStandardDeviation:
		v.Kind = WithinTolerance
	default:
		v.Kind = Regressed
	}
	return v, nil
}
