// Package baseline holds the reference measurements benchmarks are judged
// against, their on-disk documents and the protocol used to update them.
package baseline

import (
	"errors"
	"fmt"
)

// DefaultTolerance is the max percent deviation given to newly created baselines.
const DefaultTolerance = 10.0

var (
	ErrNonPositiveMeasurement = errors.New("baseline measurement must be positive")
	ErrNegativeTolerance      = errors.New("baseline tolerance must not be negative")
	ErrUnknownStrategy        = errors.New("unknown strategy")
)

// Strategy selects which metric of a benchmark result is compared to the baseline.
type Strategy string

const (
	Minimum Strategy = "minimum"
	Average Strategy = "average"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Minimum, Average:
		return Strategy(s), nil
	case "":
		return Minimum, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

func (s *Strategy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseStrategy(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Baseline is the reference measurement of one test on one destination.
type Baseline struct {
	Strategy                            Strategy          `yaml:"strategy"`
	Measurement                         float64           `yaml:"measurement"`
	MaxPercentRelativeStandardDeviation float64           `yaml:"maxPercentRelativeStandardDeviation"`
	UserInfo                            map[string]string `yaml:"userInfo,omitempty"`
}

// New returns a validated Baseline. An empty userInfo is stored as nil.
func New(strategy Strategy, measurement, tolerance float64, userInfo map[string]string) (Baseline, error) {
	b := Baseline{
		Strategy:                            strategy,
		Measurement:                         measurement,
		MaxPercentRelativeStandardDeviation: tolerance,
	}
	if len(userInfo) > 0 {
		b.UserInfo = make(map[string]string, len(userInfo))
		for k, v := range userInfo {
			b.UserInfo[k] = v
		}
	}
	if err := b.Validate(); err != nil {
		return Baseline{}, err
	}
	return b, nil
}

func (b Baseline) Validate() error {
	if _, err := ParseStrategy(string(b.Strategy)); err != nil || b.Strategy == "" {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, b.Strategy)
	}
	if !(b.Measurement > 0) {
		return fmt.Errorf("%w: %v", ErrNonPositiveMeasurement, b.Measurement)
	}
	if b.MaxPercentRelativeStandardDeviation < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeTolerance, b.MaxPercentRelativeStandardDeviation)
	}
	return nil
}

// Equal compares every field, including user info.
func (b Baseline) Equal(other Baseline) bool {
	if b.Strategy != other.Strategy ||
		b.Measurement != other.Measurement ||
		b.MaxPercentRelativeStandardDeviation != other.MaxPercentRelativeStandardDeviation ||
		len(b.UserInfo) != len(other.UserInfo) {
		return false
	}
	for k, v := range b.UserInfo {
		if ov, ok := other.UserInfo[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
