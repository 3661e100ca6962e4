package doctor

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Check is one diagnostic probe.
type Check interface {
	Name() string

	// Category groups checks in the output: "system", "config" or "drives".
	Category() string

	// Run probes the system. It reports problems through the result and
	// never panics on purpose; a panic is turned into an error result.
	Run(ctx context.Context) *CheckResult
}

// Runner executes checks in registration order.
type Runner struct {
	checks []Check
	now    func() time.Time
}

// NewRunner creates a runner for checks.
func NewRunner(checks ...Check) *Runner {
	return &Runner{checks: checks, now: time.Now}
}

// AddCheck registers c after the existing checks.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Run executes every check and summarises the results. A cancelled ctx
// marks the remaining checks as skipped with an error result.
func (r *Runner) Run(ctx context.Context) *Report {
	report := &Report{
		Timestamp: r.now().UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}
	if host, err := os.Hostname(); err == nil {
		report.Host = host
	}

	for _, check := range r.checks {
		var result *CheckResult
		if err := ctx.Err(); err != nil {
			result = &CheckResult{
				Name:     check.Name(),
				Category: check.Category(),
				Status:   SeverityError,
				Message:  "skipped: " + err.Error(),
			}
		} else {
			start := r.now()
			result = runCheck(ctx, check)
			result.Duration = r.now().Sub(start)
		}
		report.add(result)
	}
	return report
}

func runCheck(ctx context.Context, c Check) (res *CheckResult) {
	defer func() {
		if p := recover(); p != nil {
			res = &CheckResult{
				Name:     c.Name(),
				Category: c.Category(),
				Status:   SeverityError,
				Message:  fmt.Sprintf("check panicked: %v", p),
			}
		}
	}()
	res = c.Run(ctx)
	if res == nil {
		res = &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  "check returned no result",
		}
	}
	return res
}

// Report aggregates all check results.
type Report struct {
	Timestamp time.Time      `json:"timestamp"`
	Host      string         `json:"host,omitempty"`
	Results   []*CheckResult `json:"results"`
	Summary   Summary        `json:"summary"`
}

func (r *Report) add(res *CheckResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case SeverityPass:
		r.Summary.Passed++
	case SeverityInfo:
		r.Summary.Info++
	case SeverityWarning:
		r.Summary.Warnings++
	case SeverityError:
		r.Summary.Errors++
	}
}

// HasErrors reports whether any check failed.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings reports whether any check warned.
func (r *Report) HasWarnings() bool {
	return r.Summary.Warnings > 0
}
