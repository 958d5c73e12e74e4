package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/blang/semver/v4"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/tools/benchmark/parse"
	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"

	"github.com/antoninbas/benchguard/baseline"
	"github.com/antoninbas/benchguard/destination"
	"github.com/antoninbas/benchguard/regression"
	"github.com/antoninbas/benchguard/runner"
	"github.com/antoninbas/benchguard/stats"
)

var (
	flagConfiguration = &BenchmarkConfiguration{}
	configPath        string
	baselinesDir      string
	command           string
	strategy          string
	benchmarks        = &BenchmarkList{}
	overwrite         bool
	onlyRegression    bool
	fingerprints      = destination.CurrentProvider
)

func init() {
	flagConfiguration.AllowFailure = new(bool)
	flagConfiguration.RequireBaseline = new(bool)
	flag.StringVar(&flagConfiguration.Benchtime, "benchtime", "1s", "")
	flag.StringVar(&flagConfiguration.Cpu, "cpu", "4", "")
	flag.StringVar(&flagConfiguration.Timeout, "timeout", "10m", "")
	flag.IntVar(&flagConfiguration.ExecutionCount, "count", 10, "number of executions of each benchmark")
	flag.StringVar(&strategy, "strategy", string(baseline.Minimum), "metric compared to the baseline: minimum or average")
	flag.BoolVar(flagConfiguration.AllowFailure, "allow-failure", false, "report regressions and noisy results as warnings")
	flag.BoolVar(flagConfiguration.RequireBaseline, "require-baseline", false, "fail benchmarks without a baseline")
	flag.Float64Var(&flagConfiguration.MaxRelativeStandardDeviation, "max-relative-stddev", 15.0, "")
	flag.Float64Var(&flagConfiguration.StandardDeviationNegligibilityThreshold, "stddev-negligibility-threshold", 0.1, "")
	flag.StringVar(&configPath, "config", "", "")
	flag.StringVar(&baselinesDir, "baselines", "PerformanceBaselines", "directory holding the baseline documents")
	flag.StringVar(&command, "command", "go", "")
	flag.BoolVar(&overwrite, "overwrite", false, "write new baselines instead of printing them")
	flag.BoolVar(&onlyRegression, "only-regression", false, "")
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	err := run(os.Stdout)
	klog.Flush()
	if err != nil {
		klog.Fatal(err)
	}
}

func parseBenchmarks() error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, benchmarks)
}

func (c *BenchmarkConfiguration) applyDefaults(d *BenchmarkConfiguration) *BenchmarkConfiguration {
	if c.Benchtime == "" {
		c.Benchtime = d.Benchtime
	}
	if c.Cpu == "" {
		c.Cpu = d.Cpu
	}
	if c.Timeout == "" {
		c.Timeout = d.Timeout
	}
	c.Config.ApplyDefaults(&d.Config)
	return c
}

func updateBenchmarks() {
	if benchmarks.Command == "" {
		benchmarks.Command = command
	}
	if benchmarks.Baselines == "" {
		benchmarks.Baselines = baselinesDir
	}
	for idx := range benchmarks.Benchmarks {
		benchmark := &benchmarks.Benchmarks[idx]
		if benchmark.UniqueName == "" {
			benchmark.UniqueName = benchmark.Name
		}
		benchmark.applyDefaults(&benchmarks.BenchmarkConfiguration).applyDefaults(flagConfiguration)
	}
}

func versionRequired(requirement, version string) bool {
	if requirement == "" {
		return true
	}
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return false
	}
	r, err := semver.ParseRange(strings.ReplaceAll(requirement, "v", ""))
	if err != nil {
		return false
	}
	return r(v)
}

// toolchainVersion returns the version of the go toolchain that runs the benchmarks.
func toolchainVersion(cmdStr string) (string, error) {
	out, err := exec.Command(cmdStr, "env", "GOVERSION").Output()
	if err != nil {
		return "", fmt.Errorf("unable to get the toolchain version: %w", err)
	}
	return strings.TrimPrefix(strings.TrimSpace(string(out)), "go"), nil
}

// commitInfo describes the commit the benchmarks run on, to be stored with new baselines.
func commitInfo() (map[string]string, error) {
	r, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("unable to open the git repository: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("unable to get the reference where HEAD is pointing to: %w", err)
	}

	w, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("unable to get a worktree based on the given fs: %w", err)
	}

	s, err := w.Status()
	if err != nil {
		return nil, fmt.Errorf("unable to get the working tree status: %w", err)
	}

	info := map[string]string{"commit": head.Hash().String()}
	if !s.IsClean() {
		info["dirty"] = "true"
	}
	return info, nil
}

func mergeUserInfo(base, extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range base {
		merged[k] = v
	}
	return merged
}

func run(w io.Writer) error {
	if err := parseBenchmarks(); err != nil {
		return err
	}
	s, err := baseline.ParseStrategy(strategy)
	if err != nil {
		return err
	}
	flagConfiguration.Strategy = s
	updateBenchmarks()

	version, err := toolchainVersion(benchmarks.Command)
	if err != nil {
		return err
	}

	info, err := commitInfo()
	if err != nil {
		klog.InfoS("Baselines will not record a commit", "reason", err)
	}

	store := baseline.NewStore(benchmarks.Baselines)
	suite := runner.NewSuite(store)
	r := runner.New(store, runner.WithSuite(suite), runner.WithProvider(fingerprints))

	var rows [][]string
	for _, benchmark := range benchmarks.Benchmarks {
		if !versionRequired(benchmark.GoVersion, version) {
			klog.InfoS("Skipping benchmark", "name", benchmark.UniqueName, "goVersion", benchmark.GoVersion, "toolchain", version)
			continue
		}
		klog.InfoS("Run Benchmark", "name", benchmark.UniqueName, "package", benchmark.Package, "count", benchmark.ExecutionCount)
		samples, err := runBenchmark(benchmarks.Command, &benchmark)
		if err != nil {
			return fmt.Errorf("failed to run a benchmark: %w", err)
		}
		if len(samples) == 0 {
			continue
		}

		cfg := benchmark.Config
		cfg.UserInfo = mergeUserInfo(cfg.UserInfo, info)
		result := stats.Result{Samples: samples}
		rows = append(rows, generateRow(benchmark.UniqueName, result))

		if _, err := r.Evaluate(benchmark.Package, benchmark.UniqueName, &cfg, samples); err != nil && !isVerdictFailure(err) {
			return err
		}
	}

	outcomes := suite.Outcomes()
	if _, err := suite.Drain(w, overwrite); err != nil {
		return fmt.Errorf("failed to update baselines: %w", err)
	}

	if !onlyRegression {
		showResult(w, rows)
	}

	if runner.Report(w, outcomes, onlyRegression) {
		return fmt.Errorf("benchmarks do not meet their baselines")
	}
	return nil
}

func isVerdictFailure(err error) bool {
	return errors.Is(err, regression.ErrRegressed) ||
		errors.Is(err, regression.ErrHighVariance) ||
		errors.Is(err, regression.ErrBaselineMissing) ||
		errors.Is(err, regression.ErrDivisionByZero)
}

func runBenchmark(cmdStr string, benchmark *Benchmark) ([]time.Duration, error) {
	var stderr bytes.Buffer
	args := []string{
		"test",
		"-run", "^$",
		"-bench", benchmark.Name,
		"-benchtime", benchmark.Benchtime,
		"-timeout", benchmark.Timeout,
		"-cpu", benchmark.Cpu,
		"-count", strconv.Itoa(benchmark.ExecutionCount),
	}
	args = append(args, benchmark.Package)
	cmd := exec.Command(cmdStr, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if strings.HasSuffix(strings.TrimSpace(stderr.String()), "no packages to test") {
			return nil, nil
		}
		klog.InfoS("Benchmark output", "stdout", string(out), "stderr", stderr.String())
		return nil, fmt.Errorf("failed to run '%s' command: %w", cmd, err)
	}

	s, err := parse.ParseSet(bytes.NewBuffer(out))
	if err != nil {
		return nil, fmt.Errorf("failed to parse a result of benchmarks: %w", err)
	}
	return samplesFromSet(s)
}

// samplesFromSet turns the lines of a single benchmark into one sample per line.
func samplesFromSet(s parse.Set) ([]time.Duration, error) {
	if len(s) == 0 {
		return nil, nil
	}
	if len(s) != 1 {
		return nil, fmt.Errorf("expected exactly one benchmark result")
	}
	var samples []time.Duration
	for _, lines := range s {
		for _, b := range lines {
			samples = append(samples, time.Duration(b.NsPerOp))
		}
	}
	return samples, nil
}

func generateRow(name string, result stats.Result) []string {
	row := []string{name, strconv.Itoa(len(result.Samples)), "-", "-", "-"}
	if v, err := result.Minimum(); err == nil {
		row[2] = fmt.Sprintf(" %.2f ns/op", v*1e9)
	}
	if v, err := result.Average(); err == nil {
		row[3] = fmt.Sprintf(" %.2f ns/op", v*1e9)
	}
	if v, err := result.RelativeStandardDeviation(); err == nil {
		row[4] = fmt.Sprintf(" %.2f%%", v)
	}
	return row
}

func showResult(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w, "\nResult")
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 6))

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	headers := []string{"Name", "Samples", "Minimum", "Average", "RSD"}
	table.SetHeader(headers)
	table.SetRowLine(true)
	table.AppendBulk(rows)
	table.Render()
}
