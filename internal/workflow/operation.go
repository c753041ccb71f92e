package workflow

import (
	"context"
	"errors"
	"time"
)

// StepStatus enumerates the terminal states of an executed step.
type StepStatus string

// Step status enumerations.
const (
	StepStatusSucceeded StepStatus = StepStatus("succeeded")
	StepStatusFailed    StepStatus = StepStatus("failed")
	StepStatusSkipped   StepStatus = StepStatus("skipped")
)

// Step is a named unit of automation work executed by the runner.
type Step interface {
	// Name identifies the step in configuration, logs, and the run report.
	Name() string
	// Execute performs the step's work.
	Execute(executionContext context.Context) error
}

// RetryableError marks errors representing transient failures worth retrying.
type RetryableError interface {
	Retryable() bool
}

// FatalError marks errors that must abort the remaining sequence regardless
// of the continue-on-error setting.
type FatalError interface {
	Fatal() bool
}

// StepResult captures the outcome of one executed step.
type StepResult struct {
	StepName       string
	Status         StepStatus
	Attempts       int
	Duration       time.Duration
	FailureMessage string
	Err            error
}

// RunReport aggregates the outcomes of an automation run.
type RunReport struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Results     []StepResult
	// Aborted marks a fatal failure. Halted marks any early stop, fatal or
	// not, that left later steps skipped.
	Aborted bool
	Halted  bool
}

// Succeeded reports whether every executed step completed successfully.
func (report RunReport) Succeeded() bool {
	if report.Aborted {
		return false
	}
	for _, stepResult := range report.Results {
		if stepResult.Status == StepStatusFailed {
			return false
		}
	}
	return true
}

// FailedSteps returns the results of every failed step.
func (report RunReport) FailedSteps() []StepResult {
	failedResults := []StepResult{}
	for _, stepResult := range report.Results {
		if stepResult.Status == StepStatusFailed {
			failedResults = append(failedResults, stepResult)
		}
	}
	return failedResults
}

func errorIsRetryable(candidate error) bool {
	var retryableCandidate RetryableError
	if errors.As(candidate, &retryableCandidate) {
		return retryableCandidate.Retryable()
	}
	return false
}

func errorIsFatal(candidate error) bool {
	var fatalCandidate FatalError
	if errors.As(candidate, &fatalCandidate) {
		return fatalCandidate.Fatal()
	}
	return false
}
