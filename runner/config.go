package runner

import (
	"errors"
	"fmt"

	"github.com/antoninbas/benchguard/baseline"
)

var ErrInvalidConfig = errors.New("invalid benchmark configuration")

// Config controls how a benchmark is measured and judged. Unset fields are
// filled in by applyDefaults; pointer fields distinguish "unset" from false.
type Config struct {
	ExecutionCount                          int               `yaml:"executionCount"`
	Strategy                                baseline.Strategy `yaml:"strategy"`
	AllowFailure                            *bool             `yaml:"allowFailure,omitempty"`
	RequireBaseline                         *bool             `yaml:"requireBaseline,omitempty"`
	MaxRelativeStandardDeviation            float64           `yaml:"maxRelativeStandardDeviation"`
	StandardDeviationNegligibilityThreshold float64           `yaml:"standardDeviationNegligibilityThreshold"`
	// UserInfo is stored with newly staged baselines.
	UserInfo map[string]string `yaml:"userInfo,omitempty"`
	// TestInfo, when set, is appended to the test name as "name | info".
	TestInfo string `yaml:"testInfo,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		ExecutionCount:                          10,
		Strategy:                                baseline.Minimum,
		AllowFailure:                            new(bool),
		RequireBaseline:                         new(bool),
		MaxRelativeStandardDeviation:            15.0,
		StandardDeviationNegligibilityThreshold: 0.1,
	}
}

// ApplyDefaults fills every unset field of c from d and returns c, so that
// calls can be chained from the most to the least specific configuration.
func (c *Config) ApplyDefaults(d *Config) *Config {
	if c.ExecutionCount == 0 {
		c.ExecutionCount = d.ExecutionCount
	}
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if c.AllowFailure == nil {
		c.AllowFailure = d.AllowFailure
	}
	if c.RequireBaseline == nil {
		c.RequireBaseline = d.RequireBaseline
	}
	if c.MaxRelativeStandardDeviation == 0 {
		c.MaxRelativeStandardDeviation = d.MaxRelativeStandardDeviation
	}
	if c.StandardDeviationNegligibilityThreshold == 0 {
		c.StandardDeviationNegligibilityThreshold = d.StandardDeviationNegligibilityThreshold
	}
	if c.UserInfo == nil {
		c.UserInfo = d.UserInfo
	}
	if c.TestInfo == "" {
		c.TestInfo = d.TestInfo
	}
	return c
}

func (c *Config) Validate() error {
	if c.ExecutionCount <= 0 {
		return fmt.Errorf("%w: executionCount must be positive, got %d", ErrInvalidConfig, c.ExecutionCount)
	}
	if _, err := baseline.ParseStrategy(string(c.Strategy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.MaxRelativeStandardDeviation < 0 {
		return fmt.Errorf("%w: maxRelativeStandardDeviation must not be negative", ErrInvalidConfig)
	}
	if c.StandardDeviationNegligibilityThreshold < 0 {
		return fmt.Errorf("%w: standardDeviationNegligibilityThreshold must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) allowFailure() bool {
	return c.AllowFailure != nil && *c.AllowFailure
}

func (c *Config) requireBaseline() bool {
	return c.RequireBaseline != nil && *c.RequireBaseline
}

// resolve returns a copy of c with defaults applied. A nil c yields the defaults.
func resolve(c *Config) (*Config, error) {
	resolved := &Config{}
	if c != nil {
		copied := *c
		resolved = &copied
	}
	resolved.ApplyDefaults(DefaultConfig())
	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// QualifiedName returns the name under which a test's baseline is stored.
func QualifiedName(name, testInfo string) string {
	if testInfo == "" {
		return name
	}
	return name + " | " + testInfo
}
