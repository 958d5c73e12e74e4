package main

import (
	"github.com/antoninbas/benchguard/runner"
)

type BenchmarkConfiguration struct {
	Benchtime     string `yaml:"benchtime"`
	Cpu           string `yaml:"cpu"`
	Timeout       string `yaml:"timeout"`
	runner.Config `yaml:",inline"`
}

type Benchmark struct {
	Name       string `yaml:"name"`
	Package    string `yaml:"package"`
	UniqueName string `yaml:"uniqueName"`
	// GoVersion is a semver range the go toolchain must satisfy, e.g. ">=1.21.0".
	GoVersion              string `yaml:"goVersion"`
	BenchmarkConfiguration `yaml:",inline"`
}

type BenchmarkList struct {
	BenchmarkConfiguration `yaml:",inline"`
	Command                string      `yaml:"command"`
	Baselines              string      `yaml:"baselines"`
	Benchmarks             []Benchmark `yaml:"benchmarks"`
}
