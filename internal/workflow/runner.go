package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	runLoggerMissingMessageConstant        = "run logger not configured"
	stepStartedMessageTemplateConstant     = "Starting step %s"
	stepSucceededMessageTemplateConstant   = "Step %s completed in %s"
	stepFailedMessageTemplateConstant      = "Step %s failed after %d attempt(s): %s"
	stepRetryMessageTemplateConstant       = "Step %s attempt %d failed, retrying in %s: %s"
	sequenceAbortedMessageTemplateConstant = "Aborting run after fatal failure in step %s"
	sequenceSkippedMessageTemplateConstant = "Skipping step %s after earlier failure"
	defaultRetryAttemptsConstant           = 2
	defaultRetryBaseDelayConstant          = time.Second
)

// ErrRunLoggerNotConfigured indicates the runner was constructed without a logger.
var ErrRunLoggerNotConfigured = errors.New(runLoggerMissingMessageConstant)

// RetryPolicy bounds how often a retryable step failure is reattempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries including the first one.
	MaxAttempts int
	// BaseDelay is the wait before the first retry. Each further retry doubles it.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the retry policy applied when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: defaultRetryAttemptsConstant, BaseDelay: defaultRetryBaseDelayConstant}
}

func (policy RetryPolicy) normalized() RetryPolicy {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay < 0 {
		policy.BaseDelay = 0
	}
	return policy
}

// RunnerOptions configures sequence execution behavior.
type RunnerOptions struct {
	ContinueOnError bool
	RetryPolicy     RetryPolicy
	// SleepFunc is the delay function used between retries. Tests substitute it.
	SleepFunc func(time.Duration)
}

// Runner executes automation steps sequentially and records their outcomes.
type Runner struct {
	runLogger       *zap.Logger
	continueOnError bool
	retryPolicy     RetryPolicy
	sleepFunc       func(time.Duration)
	clock           func() time.Time
}

// NewRunner constructs a Runner writing progress to the provided run logger.
func NewRunner(runLogger *zap.Logger, options RunnerOptions) (*Runner, error) {
	if runLogger == nil {
		return nil, ErrRunLoggerNotConfigured
	}
	sleepFunc := options.SleepFunc
	if sleepFunc == nil {
		sleepFunc = time.Sleep
	}
	return &Runner{
		runLogger:       runLogger,
		continueOnError: options.ContinueOnError,
		retryPolicy:     options.RetryPolicy.normalized(),
		sleepFunc:       sleepFunc,
		clock:           time.Now,
	}, nil
}

// Run executes the provided steps in order and returns the run report.
// Fatal failures abort the remaining sequence. Non-fatal failures abort as
// well unless continue-on-error is enabled, in which case later steps still
// run and the failure is reflected in the report.
func (runner *Runner) Run(executionContext context.Context, steps []Step) RunReport {
	report := RunReport{StartedAt: runner.clock()}
	abortRemaining := false

	for _, currentStep := range steps {
		if abortRemaining {
			runner.runLogger.Sugar().Errorf(sequenceSkippedMessageTemplateConstant, currentStep.Name())
			report.Results = append(report.Results, StepResult{StepName: currentStep.Name(), Status: StepStatusSkipped})
			continue
		}

		stepResult := runner.runStep(executionContext, currentStep)
		report.Results = append(report.Results, stepResult)

		if stepResult.Status != StepStatusFailed {
			continue
		}
		if errorIsFatal(stepResult.Err) || !runner.continueOnError {
			runner.runLogger.Sugar().Errorf(sequenceAbortedMessageTemplateConstant, currentStep.Name())
			report.Aborted = errorIsFatal(stepResult.Err)
			report.Halted = true
			abortRemaining = true
		}
	}

	report.CompletedAt = runner.clock()
	return report
}

func (runner *Runner) runStep(executionContext context.Context, currentStep Step) StepResult {
	stepStartedAt := runner.clock()
	runner.runLogger.Sugar().Infof(stepStartedMessageTemplateConstant, currentStep.Name())

	attempts := 0
	retryDelay := runner.retryPolicy.BaseDelay
	var stepError error

	for attempts < runner.retryPolicy.MaxAttempts {
		attempts++
		stepError = currentStep.Execute(executionContext)
		if stepError == nil {
			break
		}
		if !errorIsRetryable(stepError) || attempts >= runner.retryPolicy.MaxAttempts {
			break
		}
		if executionContext != nil && executionContext.Err() != nil {
			break
		}
		runner.runLogger.Sugar().Errorf(stepRetryMessageTemplateConstant, currentStep.Name(), attempts, retryDelay, stepError)
		runner.sleepFunc(retryDelay)
		retryDelay *= 2
	}

	stepDuration := runner.clock().Sub(stepStartedAt)
	if stepError != nil {
		runner.runLogger.Sugar().Errorf(stepFailedMessageTemplateConstant, currentStep.Name(), attempts, stepError)
		return StepResult{
			StepName:       currentStep.Name(),
			Status:         StepStatusFailed,
			Attempts:       attempts,
			Duration:       stepDuration,
			FailureMessage: stepError.Error(),
			Err:            stepError,
		}
	}

	runner.runLogger.Sugar().Infof(stepSucceededMessageTemplateConstant, currentStep.Name(), stepDuration)
	return StepResult{
		StepName: currentStep.Name(),
		Status:   StepStatusSucceeded,
		Attempts: attempts,
		Duration: stepDuration,
	}
}
