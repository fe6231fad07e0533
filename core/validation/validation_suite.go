package validation

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"discharge_backend/core"

	"github.com/fatih/color"
)

// ValidationStep represents a single validation step with its status.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SuiteResult represents the complete result of validation suite execution.
type SuiteResult struct {
	Steps       []ValidationStep
	PassedSteps int
	FailedSteps int
	Duration    time.Duration
	Success     bool
}

// Suite runs the startup checks for the discharge service: the model
// credential, the endpoint URL, the document template and, optionally, a
// live connectivity probe.
type Suite struct {
	cfg          *core.Config
	output       io.Writer
	connectivity *ConnectivityChecker
	showProgress bool
	failFast     bool
	probe        bool
}

// NewSuite creates a Suite for cfg that prints progress to stdout.
func NewSuite(cfg *core.Config) *Suite {
	return &Suite{
		cfg:          cfg,
		output:       os.Stdout,
		connectivity: NewConnectivityChecker(cfg, 10*time.Second),
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *Suite) WithOutput(w io.Writer) *Suite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *Suite) WithShowProgress(show bool) *Suite {
	s.showProgress = show
	return s
}

// WithFailFast stops validation on first failure if enabled.
func (s *Suite) WithFailFast(failFast bool) *Suite {
	s.failFast = failFast
	return s
}

// WithConnectivityProbe enables the network check against the model endpoint.
func (s *Suite) WithConnectivityProbe(probe bool) *Suite {
	s.probe = probe
	return s
}

// Validate runs all checks in order and returns the collected result.
func (s *Suite) Validate(ctx context.Context) SuiteResult {
	start := time.Now()
	if s.showProgress {
		s.printHeader("Discharge Service Configuration")
	}

	checks := []struct {
		name string
		fn   func() (bool, string, error)
	}{
		{"Model API Key", s.checkAPIKey},
		{"Model Endpoint URL", s.checkEndpointURL},
		{"Document Template", s.checkTemplate},
	}

	steps := make([]ValidationStep, 0, len(checks)+2)
	for _, check := range checks {
		step := s.runStep(check.name, check.fn)
		steps = append(steps, step)
		if s.failFast && step.Status == StepFailed {
			return s.finish(steps, start)
		}
	}

	if s.cfg.TemplateAliasesFile != "" {
		steps = append(steps, s.runStep("Template Aliases", func() (bool, string, error) {
			if err := CheckFileExists(s.cfg.TemplateAliasesFile); err != nil {
				return false, "Alias file unavailable", err
			}
			return true, s.cfg.TemplateAliasesFile, nil
		}))
	} else {
		steps = append(steps, s.skip("Template Aliases", "Using built-in aliases"))
	}

	switch {
	case !s.probe:
		steps = append(steps, s.skip("Model Endpoint Connectivity", "Probe disabled"))
	case !allPassed(steps):
		steps = append(steps, s.skip("Model Endpoint Connectivity", "Skipped due to configuration errors"))
	default:
		steps = append(steps, s.runStep("Model Endpoint Connectivity", func() (bool, string, error) {
			res := s.connectivity.Check(ctx, s.cfg.LLMEndpoint())
			msg := res.Message
			if res.Latency > 0 {
				msg = fmt.Sprintf("%s (latency: %v)", msg, res.Latency.Round(time.Millisecond))
			}
			return res.Reachable, msg, res.Error
		}))
	}

	return s.finish(steps, start)
}

func (s *Suite) checkAPIKey() (bool, string, error) {
	if _, err := s.cfg.LLMAPIKey(); err != nil {
		return false, "Missing credential", err
	}
	return true, fmt.Sprintf("%s key configured", s.cfg.Provider), nil
}

func (s *Suite) checkEndpointURL() (bool, string, error) {
	endpoint := s.cfg.LLMEndpoint()
	if err := ValidateServerURL(endpoint); err != nil {
		return false, "Invalid URL", core.ErrInvalidServerURL(endpoint, err.Error())
	}
	return true, endpoint, nil
}

func (s *Suite) checkTemplate() (bool, string, error) {
	if err := CheckTemplateFile(s.cfg.TemplatePath); err != nil {
		return false, "Template unavailable", err
	}
	return true, s.cfg.TemplatePath, nil
}

func (s *Suite) runStep(name string, fn func() (bool, string, error)) ValidationStep {
	if s.showProgress {
		fmt.Fprintf(s.output, "  ◌ %s...", name)
	}

	start := time.Now()
	passed, message, err := fn()
	step := ValidationStep{
		Name:    name,
		Status:  StepFailed,
		Message: message,
		Error:   err,
		Latency: time.Since(start),
	}
	if passed {
		step.Status = StepPassed
	}

	if s.showProgress {
		s.printStep(step)
	}
	return step
}

func (s *Suite) skip(name, reason string) ValidationStep {
	step := ValidationStep{Name: name, Status: StepSkipped, Message: reason}
	if s.showProgress {
		s.printStep(step)
	}
	return step
}

func allPassed(steps []ValidationStep) bool {
	for _, step := range steps {
		if step.Status == StepFailed {
			return false
		}
	}
	return true
}

func (s *Suite) finish(steps []ValidationStep, start time.Time) SuiteResult {
	result := SuiteResult{
		Steps:    steps,
		Duration: time.Since(start),
		Success:  true,
	}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		}
	}
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

func (s *Suite) printHeader(title string) {
	fmt.Fprintln(s.output)
	color.New(color.FgCyan, color.Bold).Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

func (s *Suite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon, clr = "✓", color.New(color.FgGreen)
	case StepFailed:
		icon, clr = "✗", color.New(color.FgRed)
	case StepSkipped:
		icon, clr = "○", color.New(color.FgHiBlack)
	default:
		icon, clr = "?", color.New(color.FgWhite)
	}

	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		color.New(color.FgRed).Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

func (s *Suite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)
	if result.Success {
		ok := color.New(color.FgGreen, color.Bold)
		ok.Fprintf(s.output, "━━━ Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, len(result.Steps), result.Duration.Round(time.Millisecond))
		ok.Fprintln(s.output, " ━━━")
	} else {
		fail := color.New(color.FgRed, color.Bold)
		fail.Fprintf(s.output, "━━━ Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		fail.Fprintln(s.output, " ━━━")
	}
	fmt.Fprintln(s.output)
}

// FirstError returns the error of the first failed step, or nil.
func (r SuiteResult) FirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// Summary returns a one-line human-readable summary.
func (r SuiteResult) Summary() string {
	var sb strings.Builder
	if r.Success {
		sb.WriteString("Validation Passed: ")
	} else {
		sb.WriteString("Validation Failed: ")
	}
	fmt.Fprintf(&sb, "%d/%d checks passed", r.PassedSteps, len(r.Steps))
	if r.FailedSteps > 0 {
		fmt.Fprintf(&sb, ", %d failed", r.FailedSteps)
	}
	return sb.String()
}
