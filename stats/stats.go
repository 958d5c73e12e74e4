// Package stats reduces the wall-clock samples of a benchmark to summary statistics.
package stats

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoSamples           = errors.New("no samples recorded")
	ErrInsufficientSamples = errors.New("at least two samples are required for a standard deviation")
	ErrZeroAverage         = errors.New("average is zero")
)

// Result holds the samples of one benchmark invocation together with the
// thresholds used to decide whether the samples are too noisy to be trusted.
// All derived quantities are expressed in seconds and computed on demand.
type Result struct {
	Samples                                 []time.Duration
	MaxRelativeStandardDeviation            float64
	StandardDeviationNegligibilityThreshold float64
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

// FormatSeconds renders a value in seconds as a duration with an auto-scaled
// unit, so that nanosecond-scale measurements stay readable.
func FormatSeconds(s float64) string {
	return time.Duration(math.Round(s * float64(time.Second))).String()
}

func (r Result) Average() (float64, error) {
	if len(r.Samples) == 0 {
		return 0, ErrNoSamples
	}
	var sum float64
	for _, s := range r.Samples {
		sum += seconds(s)
	}
	return sum / float64(len(r.Samples)), nil
}

// StandardDeviation returns the sample standard deviation (n-1 denominator).
func (r Result) StandardDeviation() (float64, error) {
	average, err := r.Average()
	if err != nil {
		return 0, err
	}
	if len(r.Samples) < 2 {
		return 0, ErrInsufficientSamples
	}
	var squared float64
	for _, s := range r.Samples {
		d := seconds(s) - average
		squared += d * d
	}
	return math.Sqrt(squared / float64(len(r.Samples)-1)), nil
}

// RelativeStandardDeviation returns the standard deviation as a percentage of the average.
func (r Result) RelativeStandardDeviation() (float64, error) {
	sd, err := r.StandardDeviation()
	if err != nil {
		return 0, err
	}
	average, _ := r.Average()
	if average == 0 {
		return 0, ErrZeroAverage
	}
	return sd * 100 / average, nil
}

func (r Result) Minimum() (float64, error) {
	if len(r.Samples) == 0 {
		return 0, ErrNoSamples
	}
	min := r.Samples[0]
	for _, s := range r.Samples[1:] {
		if s < min {
			min = s
		}
	}
	return seconds(min), nil
}

// HighVariance reports whether both the relative and the absolute standard
// deviation exceed their configured limits.
func (r Result) HighVariance() (bool, error) {
	rsd, err := r.RelativeStandardDeviation()
	if err != nil {
		return false, err
	}
	sd, _ := r.StandardDeviation()
	return rsd > r.MaxRelativeStandardDeviation && sd > r.StandardDeviationNegligibilityThreshold, nil
}

// Summary renders the average and the noise figures on a single line. Figures
// that cannot be computed for this sample set are printed as "n/a".
func (r Result) Summary() string {
	average := "n/a"
	if v, err := r.Average(); err == nil {
		average = FormatSeconds(v)
	}
	rsd := "n/a"
	if v, err := r.RelativeStandardDeviation(); err == nil {
		rsd = fmt.Sprintf("%.3f%%", v)
	}
	return fmt.Sprintf("Average: %s, relative standard deviation: %s, maxPercentRelativeStandardDeviation: %.3f%%, maxStandardDeviation: %s",
		average, rsd, r.MaxRelativeStandardDeviation, FormatSeconds(r.StandardDeviationNegligibilityThreshold))
}
